package engine

// Output receives the frames of a simulation. Frames handed to Store are
// snapshots the engine never touches again; an output may keep or drop them.
type Output[T Number] interface {
	// Len is the declared number of frames, used as the default stop time.
	Len() int
	// FPS is the nominal pacing hint. Zero or less runs unpaced.
	FPS() float64
	// Store receives the frame for clock value t.
	Store(t int, frame *Array[T]) error
	// Last returns the most recent frame and its clock value, if any.
	Last() (int, *Array[T], bool)
}
