// ABOUTME: Conversion pipeline package
// ABOUTME: Runs synthesis or transcoding and hands the WAV file to a Sink
// Package convert drives a single conversion from input to downloadable file.
//
// A Converter reports progress through a ProgressReporter and delivers the
// finished file to a Sink. Neither collaborator is global: the CLI passes a
// terminal UI and a directory sink, the HTTP server passes a WebSocket
// reporter and a response writer.
//
// Example:
//
//	c := convert.New(convert.Config{
//	    Progress: convert.ProgressFunc(func(p int, text string) { log.Printf("%d%% %s", p, text) }),
//	    Sink:     &convert.DirSink{Dir: "."},
//	})
//	res, err := c.Demo(ctx, "Never Gonna Give You Up")
package convert
