// Package stream provides byte streams over memory or file backends with
// an optional chain of encode or decode filters.
//
// A read stream pulls bytes from its backend through the filter chain:
//
//	stm, err := stream.NewMem(data, 0, stream.ModeRead)
//	if err != nil {
//	    return err
//	}
//	stm.InstallFilter(stream.V2Decoder, stream.Params{"Key": key})
//	stm.InstallFilter(stream.FlateDecoder, nil)
//	plain, err := io.ReadAll(stm)
//
// In read mode the first installed filter sees the backend bytes first, so
// the example decrypts and then inflates.
//
// A write stream pushes bytes through the chain into the backend. There
// the most recently installed filter sees the caller's bytes first:
//
//	stm, _ := stream.NewFile(f, 0, 0, stream.ModeWrite)
//	stm.InstallFilter(stream.V2Encoder, stream.Params{"Key": key})
//	stm.InstallFilter(stream.FlateEncoder, nil)
//	stm.Write(content) // deflated, then encrypted
//	stm.Close()        // flushes trailing codec state
//
// Streams are not safe for concurrent use.
package stream
