package mocks

import (
	"fmt"

	"github.com/user/hevcdec/pkg/ports"
)

// Demuxer is a mock implementation of ports.Demuxer.
type Demuxer struct {
	// Track is returned by default for any path.
	Track *ports.VideoTrack

	DemuxFunc func(path string) (*ports.VideoTrack, error)

	// Paths records every demuxed path.
	Paths []string
}

var _ ports.Demuxer = (*Demuxer)(nil)

func (m *Demuxer) Demux(path string) (*ports.VideoTrack, error) {
	m.Paths = append(m.Paths, path)
	if m.DemuxFunc != nil {
		return m.DemuxFunc(path)
	}
	if m.Track == nil {
		return nil, fmt.Errorf("no track configured for %s", path)
	}
	return m.Track, nil
}
