package ports

// VideoSample is one coded access unit with its decode timestamp in
// track timescale units.
type VideoSample struct {
	Data     []byte
	PTS      int64
	Keyframe bool
}

// VideoTrack is an extracted video track: the decoder configuration
// block plus every sample in decode order.
type VideoTrack struct {
	TrackID   uint32
	Timescale uint32
	FPS       float64

	// Config is the out-of-band decoder configuration, or nil when the
	// stream carries its parameter sets in-band.
	Config []byte

	Samples []VideoSample
}

// Demuxer extracts a coded video track from a container file.
type Demuxer interface {
	Demux(path string) (*VideoTrack, error)
}
