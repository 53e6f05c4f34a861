// Package backend plays tracks on the local audio output.
//
// [New] selects the implementation from the configured backend tag. The
// GStreamer backend runs one gst-launch-1.0 playbin process per track and
// pauses it with job-control signals. The rodio tag is recognised but the
// decoder is not compiled into this build, so selecting it fails startup.
package backend
