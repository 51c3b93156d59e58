//go:build prismdebug

package glgpu

import (
	"Prism3D/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

func checkError(op string) {
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		logger.Log.Error("OpenGL error", zap.String("op", op), zap.Uint32("code", code))
	}
}
