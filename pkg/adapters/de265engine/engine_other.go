//go:build !darwin && !linux

package de265engine

import (
	"errors"
	"runtime"

	"github.com/user/hevcdec/pkg/ports"
)

// Engine is unavailable on this platform.
type Engine struct{}

func New(threads int) (*Engine, error) {
	return nil, errors.New("libde265 binding is not supported on " + runtime.GOOS)
}

func (e *Engine) PushNAL(nal []byte, pts int64) error { return errors.ErrUnsupported }
func (e *Engine) PushData(data []byte, pts int64) error { return errors.ErrUnsupported }
func (e *Engine) EndOfStream() error { return errors.ErrUnsupported }
func (e *Engine) DecodeStep() (bool, error) { return false, errors.ErrUnsupported }
func (e *Engine) NextPicture() (ports.Picture, bool) { return nil, false }
func (e *Engine) SetAllocator(a ports.ImageAllocator) {}
func (e *Engine) SetSkipLoopFilter(skip bool) {}
func (e *Engine) SetFramerateRatio(percent int) {}
func (e *Engine) Reset() error { return errors.ErrUnsupported }
func (e *Engine) Close() error { return nil }
