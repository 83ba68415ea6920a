package format

// ChannelMatrix mixes a source interleaved F32 block into a destination
// interleaved F32 block with a different channel count. It never
// reallocates: dst must already be sized for len(src)/srcCh*dstCh samples.
//
// Coefficients follow ITU-R BS.775 for the surround pairs and simple
// duplicate/average rules for mono<->stereo, matching common practice
// across consumer audio stacks.
func ChannelMatrix(src []float32, srcCh int, dst []float32, dstCh int) {
	if srcCh == dstCh {
		copy(dst, src)
		return
	}

	frames := len(src) / srcCh
	for f := 0; f < frames; f++ {
		in := src[f*srcCh : f*srcCh+srcCh]
		out := dst[f*dstCh : f*dstCh+dstCh]
		mixFrame(in, srcCh, out, dstCh)
	}
}

func mixFrame(in []float32, srcCh int, out []float32, dstCh int) {
	switch {
	case srcCh == 1 && dstCh == 2:
		out[0], out[1] = in[0], in[0]
	case srcCh == 2 && dstCh == 1:
		out[0] = 0.5 * (in[0] + in[1])
	case srcCh == 2 && dstCh == 6:
		// L R C LFE BL BR — ITU-R BS.775 upmix: front pair passthrough,
		// silent center/LFE, rear pair derived from the front pair at -3dB.
		const rear = 0.7071068
		out[chL], out[chR] = in[0], in[1]
		out[chC], out[chLFE] = 0, 0
		out[chBL], out[chBR] = rear*in[0], rear*in[1]
	case srcCh == 6 && dstCh == 2:
		const rear = 0.7071068
		out[0] = in[chL] + 0.7071068*in[chC] + rear*in[chBL]
		out[1] = in[chR] + 0.7071068*in[chC] + rear*in[chBR]
	case srcCh == 2 && dstCh == 8:
		const rear = 0.7071068
		out[chL], out[chR] = in[0], in[1]
		out[chC], out[chLFE] = 0, 0
		out[chBL], out[chBR] = rear*in[0], rear*in[1]
		out[chSL], out[chSR] = rear*in[0], rear*in[1]
	case srcCh == 8 && dstCh == 2:
		const side = 0.7071068
		out[0] = in[chL] + 0.7071068*in[chC] + side*in[chBL] + side*in[chSL]
		out[1] = in[chR] + 0.7071068*in[chC] + side*in[chBR] + side*in[chSR]
	default:
		// General fallback: write the plain average of all source channels
		// into every destination channel.
		var sum float32
		for _, v := range in {
			sum += v
		}
		avg := sum / float32(srcCh)
		for i := range out {
			out[i] = avg
		}
	}
}

// Wave-format channel index conventions for 5.1 (L R C LFE BL BR) and
// 7.1 (adds SL SR).
const (
	chL = iota
	chR
	chC
	chLFE
	chBL
	chBR
	chSL
	chSR
)

// Interleave packs per-channel planar buffers into one interleaved F32 buffer.
func Interleave(planar [][]float32, dst []float32) {
	ch := len(planar)
	if ch == 0 {
		return
	}
	frames := len(planar[0])
	for f := 0; f < frames; f++ {
		for c := 0; c < ch; c++ {
			dst[f*ch+c] = planar[c][f]
		}
	}
}

// Deinterleave splits an interleaved F32 buffer into per-channel planar buffers.
func Deinterleave(src []float32, ch int, planar [][]float32) {
	frames := len(src) / ch
	for f := 0; f < frames; f++ {
		for c := 0; c < ch; c++ {
			planar[c][f] = src[f*ch+c]
		}
	}
}
