//go:build !linux && !darwin

package serial

import (
	"os"

	"github.com/justapithecus/serialcat/types"
)

func openDevice(string, types.Settings) (*os.File, error) {
	return nil, ErrUnsupportedPlatform
}

func control(*os.File, func(fd int)) error { return ErrUnsupportedPlatform }

func drain(int) error { return ErrUnsupportedPlatform }
