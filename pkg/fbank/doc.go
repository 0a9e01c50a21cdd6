// SPDX-License-Identifier: MIT

/*
Package fbank computes log-mel filterbank (FBANK) features from a mono
16 kHz waveform, in the layout speaker-embedding models expect.

Pipeline, per frame:

	samples -> dither -> DC removal -> pre-emphasis -> window
	        -> zero pad -> radix-2 FFT -> power spectrum
	        -> triangular mel filters -> log

Defaults (DefaultOptions):

	25 ms frames, 10 ms shift, povey window, pre-emphasis 0.97,
	512-point FFT, 80 mel bins from 20 Hz to Nyquist, power spectrum,
	natural log floored at the float32 epsilon.

Usage:

	ext, err := fbank.New(fbank.DefaultOptions())
	if err != nil {
		return err
	}
	feats, err := ext.ExtractPCM16(pcm) // frames × 80
*/
package fbank
