package monitoring

import (
	"testing"
	"time"

	"playcore/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubReader returns a fixed memory snapshot.
type stubReader struct {
	available uint64
	used      uint64
	err       error
}

func (r *stubReader) ReadMemory() (uint64, uint64, error) {
	return r.available, r.used, r.err
}

func TestNewMemoryMonitor_ValidatesInputs(t *testing.T) {
	reader := &stubReader{}
	log := zaptest.NewLogger(t).Sugar()

	_, err := NewMemoryMonitor(reader, 0, 0.7, 0.85, log)
	assert.Error(t, err)

	_, err = NewMemoryMonitor(reader, time.Second, 0, 0.85, log)
	assert.Error(t, err)

	_, err = NewMemoryMonitor(reader, time.Second, 0.7, 1, log)
	assert.Error(t, err)

	_, err = NewMemoryMonitor(reader, time.Second, 0.9, 0.85, log)
	assert.Error(t, err)

	m, err := NewMemoryMonitor(reader, time.Second, 0.7, 0.85, log)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestMemoryMonitor_SampleClassifiesPressure(t *testing.T) {
	tests := []struct {
		name      string
		used      uint64
		available uint64
		want      domain.MemoryPressure
	}{
		{"well below warning", 50, 50, domain.PressureNormal},
		{"just under warning", 69, 31, domain.PressureNormal},
		{"at warning", 70, 30, domain.PressureWarning},
		{"between thresholds", 80, 20, domain.PressureWarning},
		{"at critical", 85, 15, domain.PressureCritical},
		{"above critical", 95, 5, domain.PressureCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &stubReader{available: tt.available, used: tt.used}
			m, err := NewMemoryMonitor(reader, time.Second, 0.70, 0.85, zaptest.NewLogger(t).Sugar())
			require.NoError(t, err)

			m.Sample()
			state := m.State().Get()
			assert.Equal(t, tt.want, state.Pressure)
			assert.Equal(t, tt.used, state.UsedBytes)
			assert.Equal(t, tt.available, state.AvailableBytes)
		})
	}
}

func TestMemoryMonitor_PublishesEverySample(t *testing.T) {
	reader := &stubReader{available: 50, used: 50}
	m, err := NewMemoryMonitor(reader, time.Second, 0.70, 0.85, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	states, cancel := m.State().Subscribe()
	defer cancel()
	<-states // initial value

	m.Sample()
	first := <-states
	assert.Equal(t, domain.PressureNormal, first.Pressure)

	// Same reading again still publishes.
	m.Sample()
	second := <-states
	assert.Equal(t, first, second)
}

func TestMemoryMonitor_ReadErrorKeepsLastState(t *testing.T) {
	reader := &stubReader{available: 10, used: 90}
	m, err := NewMemoryMonitor(reader, time.Second, 0.70, 0.85, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	m.Sample()
	require.Equal(t, domain.PressureCritical, m.State().Get().Pressure)

	reader.err = assert.AnError
	m.Sample()
	assert.Equal(t, domain.PressureCritical, m.State().Get().Pressure)
}
