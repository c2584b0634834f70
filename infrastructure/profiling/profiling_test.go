package profiling_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/profiling"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := profiling.Config{}
	cfg.SetDefaults()

	assert.Equal(t, 6060, cfg.PprofPort)
	assert.Equal(t, "http://pyroscope:4040", cfg.PyroscopeURL)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.PprofEnabled)
}

func TestStart_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	p, err := profiling.Start(profiling.Config{}, "quality-engine", "1.0.0", infralogger.NewNop())
	require.NoError(t, err)

	p.Stop()
	(*profiling.Profilers)(nil).Stop()
	(*profiling.PprofServer)(nil).Stop()
	assert.NoError(t, (*profiling.PyroscopeProfiler)(nil).Stop())
}

func TestNewPprofHandler_ServesIndex(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	profiling.NewPprofHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}
