package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dentalcare/aftercare/internal/config"
)

func TestNew_WriteTimeoutCoversInference(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080}

	s := New(cfg, http.NotFoundHandler(), 60*time.Second)
	assert.Equal(t, 90*time.Second, s.httpServer.WriteTimeout)
	assert.Equal(t, "127.0.0.1:8080", s.httpServer.Addr)

	s = New(cfg, http.NotFoundHandler(), 0)
	assert.Equal(t, 30*time.Second, s.httpServer.WriteTimeout)
}
