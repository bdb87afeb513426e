package pipeline

// Kind tags the three protocol messages.
type Kind uint8

const (
	KindStart Kind = iota
	KindData
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindData:
		return "data"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Signal is a control message sent upstream through a Talkback.
type Signal uint8

const (
	// Pull requests one more Data message.
	Pull Signal = iota + 1
	// Cancel ends the channel from the consumer side.
	Cancel
)

func (s Signal) String() string {
	switch s {
	case Pull:
		return "pull"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Talkback is the upstream control handle a source hands to its sink.
type Talkback func(Signal)

// Message is one of Start, Data or End. The set is closed.
type Message[T any] interface {
	Kind() Kind
	message()
}

// Start greets a sink and carries the talkback for the channel.
type Start[T any] struct {
	Talkback Talkback
}

// Data carries one value downstream.
type Data[T any] struct {
	Value T
}

// End terminates the channel. Err is nil on normal completion.
type End[T any] struct {
	Err error
}

func (Start[T]) Kind() Kind { return KindStart }
func (Data[T]) Kind() Kind  { return KindData }
func (End[T]) Kind() Kind   { return KindEnd }

func (Start[T]) message() {}
func (Data[T]) message()  {}
func (End[T]) message()   {}

// Sink receives the messages of one channel.
type Sink[T any] func(Message[T])

// Source begins a producer for the given sink. Each call creates an
// independent producer and greets the sink with Start before returning.
type Source[T any] func(Sink[T])

// Operator turns one source into another.
type Operator[T, R any] func(Source[T]) Source[R]

// Pipe applies ops to src from left to right.
func Pipe[T any](src Source[T], ops ...Operator[T, T]) Source[T] {
	for _, op := range ops {
		src = op(src)
	}
	return src
}

// noop is the inert talkback handed out when there is nothing upstream.
func noop(Signal) {}
