package paa

// DXT1/3/5 block (de)compression. No example repo depends on an S3TC
// library (texpresso is Rust-only and absent from the pack), so this
// implements a standard "range fit" block compressor — the baseline
// algorithm libsquish documents before its iterative cluster-fit
// refinement — directly against image/color-shaped RGBA8 buffers.
// Decoding follows the BC1/BC2/BC3 bit layouts exactly, since any
// reader must interoperate with textures produced by other tools.

func blockAt(rgba []byte, width, height, bx, by int) [16][4]uint8 {
	var block [16][4]uint8
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			px, py := bx*4+x, by*4+y
			if px >= width {
				px = width - 1
			}
			if py >= height {
				py = height - 1
			}
			o := (py*width + px) * 4
			idx := y*4 + x
			block[idx][0] = rgba[o]
			block[idx][1] = rgba[o+1]
			block[idx][2] = rgba[o+2]
			block[idx][3] = rgba[o+3]
		}
	}
	return block
}

func pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func unpack565(v uint16) (r, g, b uint8) {
	r = uint8((v >> 11 & 0x1F) * 255 / 31)
	g = uint8((v >> 5 & 0x3F) * 255 / 63)
	b = uint8((v & 0x1F) * 255 / 31)
	return
}

// colorEndpoints picks two representative colors for a block via a
// bounding-box range fit: the per-channel spread (max minus min of R,
// G and B) is the projection axis, and the extreme projected pixels
// become the endpoints.
func colorEndpoints(block [16][4]uint8) (c0, c1 uint16) {
	var minC, maxC [3]int
	minC = [3]int{255, 255, 255}
	for _, p := range block {
		for c := 0; c < 3; c++ {
			v := int(p[c])
			if v < minC[c] {
				minC[c] = v
			}
			if v > maxC[c] {
				maxC[c] = v
			}
		}
	}
	var axis [3]int
	for c := 0; c < 3; c++ {
		axis[c] = maxC[c] - minC[c]
	}
	minDot, maxDot := 1<<30, -(1 << 30)
	var lo, hi [3]uint8
	for _, p := range block {
		dot := int(p[0])*axis[0] + int(p[1])*axis[1] + int(p[2])*axis[2]
		if dot < minDot {
			minDot = dot
			lo = [3]uint8{p[0], p[1], p[2]}
		}
		if dot > maxDot {
			maxDot = dot
			hi = [3]uint8{p[0], p[1], p[2]}
		}
	}
	c0 = pack565(hi[0], hi[1], hi[2])
	c1 = pack565(lo[0], lo[1], lo[2])
	if c0 == c1 {
		// Force the four-color interpolation path used by DXT3/5's
		// color block (and keep DXT1 opaque blocks out of the
		// transparent 3-color mode).
		if c0 > 0 {
			c1 = c0 - 1
		} else {
			c0 = c1 + 1
		}
	}
	return c0, c1
}

func lerpColor(r0, g0, b0, r1, g1, b1 uint8, num, den int) (r, g, b uint8) {
	r = uint8((int(r0)*(den-num) + int(r1)*num) / den)
	g = uint8((int(g0)*(den-num) + int(g1)*num) / den)
	b = uint8((int(b0)*(den-num) + int(b1)*num) / den)
	return
}

func colorPalette(c0, c1 uint16) [4][3]uint8 {
	r0, g0, b0 := unpack565(c0)
	r1, g1, b1 := unpack565(c1)
	var pal [4][3]uint8
	pal[0] = [3]uint8{r0, g0, b0}
	pal[1] = [3]uint8{r1, g1, b1}
	if c0 > c1 {
		r, g, b := lerpColor(r0, g0, b0, r1, g1, b1, 1, 3)
		pal[2] = [3]uint8{r, g, b}
		r, g, b = lerpColor(r0, g0, b0, r1, g1, b1, 2, 3)
		pal[3] = [3]uint8{r, g, b}
	} else {
		r, g, b := lerpColor(r0, g0, b0, r1, g1, b1, 1, 2)
		pal[2] = [3]uint8{r, g, b}
		pal[3] = [3]uint8{0, 0, 0}
	}
	return pal
}

func bestPaletteIndex(pal [4][3]uint8, r, g, b uint8, transparent bool) int {
	best, bestDist := 0, 1<<30
	limit := 4
	if transparent {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		dr := int(pal[i][0]) - int(r)
		dg := int(pal[i][1]) - int(g)
		db := int(pal[i][2]) - int(b)
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist, best = dist, i
		}
	}
	return best
}

func compressColorBlock(block [16][4]uint8, forceOpaque bool) (c0, c1 uint16, indices uint32) {
	c0, c1 = colorEndpoints(block)
	if forceOpaque && c0 < c1 {
		c0, c1 = c1, c0
	}
	pal := colorPalette(c0, c1)
	transparent := c0 <= c1
	for i, p := range block {
		idx := bestPaletteIndex(pal, p[0], p[1], p[2], transparent && !forceOpaque)
		indices |= uint32(idx) << uint(i*2)
	}
	return
}

func decompressColorBlock(c0, c1 uint16, indices uint32, out *[16][4]uint8) {
	pal := colorPalette(c0, c1)
	for i := 0; i < 16; i++ {
		idx := (indices >> uint(i*2)) & 0x3
		out[i][0] = pal[idx][0]
		out[i][1] = pal[idx][1]
		out[i][2] = pal[idx][2]
		if c0 <= c1 && idx == 3 {
			out[i][3] = 0
		} else {
			out[i][3] = 255
		}
	}
}

func writeRGBA(out []byte, width, height, bx, by int, block [16][4]uint8) {
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			px, py := bx*4+x, by*4+y
			if px >= width || py >= height {
				continue
			}
			o := (py*width + px) * 4
			idx := y*4 + x
			out[o] = block[idx][0]
			out[o+1] = block[idx][1]
			out[o+2] = block[idx][2]
			out[o+3] = block[idx][3]
		}
	}
}

func compressDXT1(rgba []byte, width, height int) []byte {
	bw, bh := blockDim(width), blockDim(height)
	out := make([]byte, bw*bh*8)
	pos := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			block := blockAt(rgba, width, height, bx, by)
			hasAlpha := false
			for _, p := range block {
				if p[3] < 128 {
					hasAlpha = true
					break
				}
			}
			c0, c1, indices := compressColorBlock(block, !hasAlpha)
			out[pos] = byte(c0)
			out[pos+1] = byte(c0 >> 8)
			out[pos+2] = byte(c1)
			out[pos+3] = byte(c1 >> 8)
			out[pos+4] = byte(indices)
			out[pos+5] = byte(indices >> 8)
			out[pos+6] = byte(indices >> 16)
			out[pos+7] = byte(indices >> 24)
			pos += 8
		}
	}
	return out
}

func decompressDXT1(data []byte, width, height int, out []byte) {
	bw, bh := blockDim(width), blockDim(height)
	pos := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			if pos+8 > len(data) {
				return
			}
			c0 := uint16(data[pos]) | uint16(data[pos+1])<<8
			c1 := uint16(data[pos+2]) | uint16(data[pos+3])<<8
			indices := uint32(data[pos+4]) | uint32(data[pos+5])<<8 | uint32(data[pos+6])<<16 | uint32(data[pos+7])<<24
			var block [16][4]uint8
			decompressColorBlock(c0, c1, indices, &block)
			writeRGBA(out, width, height, bx, by, block)
			pos += 8
		}
	}
}

func compressDXT3(rgba []byte, width, height int) []byte {
	bw, bh := blockDim(width), blockDim(height)
	out := make([]byte, bw*bh*16)
	pos := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			block := blockAt(rgba, width, height, bx, by)
			for i := 0; i < 16; i += 2 {
				a0 := block[i][3] >> 4
				a1 := block[i+1][3] >> 4
				out[pos+i/2] = a0 | a1<<4
			}
			c0, c1, indices := compressColorBlock(block, true)
			p := pos + 8
			out[p] = byte(c0)
			out[p+1] = byte(c0 >> 8)
			out[p+2] = byte(c1)
			out[p+3] = byte(c1 >> 8)
			out[p+4] = byte(indices)
			out[p+5] = byte(indices >> 8)
			out[p+6] = byte(indices >> 16)
			out[p+7] = byte(indices >> 24)
			pos += 16
		}
	}
	return out
}

func decompressDXT3(data []byte, width, height int, out []byte) {
	bw, bh := blockDim(width), blockDim(height)
	pos := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			if pos+16 > len(data) {
				return
			}
			var alpha [16]uint8
			for i := 0; i < 16; i += 2 {
				b := data[pos+i/2]
				alpha[i] = (b & 0x0F) * 17
				alpha[i+1] = (b >> 4) * 17
			}
			p := pos + 8
			c0 := uint16(data[p]) | uint16(data[p+1])<<8
			c1 := uint16(data[p+2]) | uint16(data[p+3])<<8
			indices := uint32(data[p+4]) | uint32(data[p+5])<<8 | uint32(data[p+6])<<16 | uint32(data[p+7])<<24
			var block [16][4]uint8
			decompressColorBlock(c0, c1, indices, &block)
			for i := range block {
				block[i][3] = alpha[i]
			}
			writeRGBA(out, width, height, bx, by, block)
			pos += 16
		}
	}
}

func alphaPalette(a0, a1 uint8) [8]uint8 {
	var pal [8]uint8
	pal[0], pal[1] = a0, a1
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			pal[1+i] = uint8((int(a0)*(7-i) + int(a1)*i) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			pal[1+i] = uint8((int(a0)*(5-i) + int(a1)*i) / 5)
		}
		pal[6] = 0
		pal[7] = 255
	}
	return pal
}

func compressDXT5(rgba []byte, width, height int) []byte {
	bw, bh := blockDim(width), blockDim(height)
	out := make([]byte, bw*bh*16)
	pos := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			block := blockAt(rgba, width, height, bx, by)
			a0, a1 := uint8(0), uint8(255)
			for _, p := range block {
				if p[3] > a0 {
					a0 = p[3]
				}
				if p[3] < a1 {
					a1 = p[3]
				}
			}
			pal := alphaPalette(a0, a1)
			var idxBits uint64
			for i, p := range block {
				best, bestDist := 0, 1<<30
				for k, v := range pal {
					d := int(v) - int(p[3])
					if d < 0 {
						d = -d
					}
					if d < bestDist {
						bestDist, best = d, k
					}
				}
				idxBits |= uint64(best) << uint(i*3)
			}
			out[pos] = a0
			out[pos+1] = a1
			for i := 0; i < 6; i++ {
				out[pos+2+i] = byte(idxBits >> uint(i*8))
			}
			c0, c1, indices := compressColorBlock(block, true)
			p := pos + 8
			out[p] = byte(c0)
			out[p+1] = byte(c0 >> 8)
			out[p+2] = byte(c1)
			out[p+3] = byte(c1 >> 8)
			out[p+4] = byte(indices)
			out[p+5] = byte(indices >> 8)
			out[p+6] = byte(indices >> 16)
			out[p+7] = byte(indices >> 24)
			pos += 16
		}
	}
	return out
}

func decompressDXT5(data []byte, width, height int, out []byte) {
	bw, bh := blockDim(width), blockDim(height)
	pos := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			if pos+16 > len(data) {
				return
			}
			a0, a1 := data[pos], data[pos+1]
			pal := alphaPalette(a0, a1)
			var idxBits uint64
			for i := 0; i < 6; i++ {
				idxBits |= uint64(data[pos+2+i]) << uint(i*8)
			}
			p := pos + 8
			c0 := uint16(data[p]) | uint16(data[p+1])<<8
			c1 := uint16(data[p+2]) | uint16(data[p+3])<<8
			indices := uint32(data[p+4]) | uint32(data[p+5])<<8 | uint32(data[p+6])<<16 | uint32(data[p+7])<<24
			var block [16][4]uint8
			decompressColorBlock(c0, c1, indices, &block)
			for i := range block {
				idx := (idxBits >> uint(i*3)) & 0x7
				block[i][3] = pal[idx]
			}
			writeRGBA(out, width, height, bx, by, block)
			pos += 16
		}
	}
}
