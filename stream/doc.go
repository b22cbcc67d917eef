// Package stream aggregates a lazily generated sequence of text fragments.
//
// [Aggregate] pulls fragments from a [Source] in arrival order, forwards
// each one to every [Sink] as soon as it arrives and accumulates them into
// the final text. The sinks and the accumulator are independent observers of
// the same sequence, so live delivery can be tested without a transport:
//
//	var live strings.Builder
//	text, err := stream.Aggregate(ctx, src, stream.WriterSink(&live))
//	var ierr *stream.InterruptedError
//	if errors.As(err, &ierr) {
//		// ierr.Partial == live.String()
//	}
//
// When the source fails, a sink fails or ctx is cancelled, Aggregate stops
// pulling, closes the source and returns an *InterruptedError carrying the
// text already delivered to the sinks.
package stream
