// Package audio decodes stored originals into mono float32 sample buffers
// and prepares them for embedding.
//
// Decode handles WAV, MP3, and FLAC input, downmixing multi-channel audio by
// averaging and normalizing samples to [-1, 1]. Resample converts between
// sample rates with a pure Go polyphase resampler, and Window slices a
// buffer into fixed-duration windows with the final window zero-padded.
package audio
