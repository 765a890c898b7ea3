package server

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := fx.ValidateApp(
		fx.Supply(DefaultConfig(), log),
		Module(),
	)
	assert.NoError(t, err)
}
