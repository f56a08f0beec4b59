package mnist

// SmallImgSize is the side of a downscaled image
const SmallImgSize = 13

func max4(a, b, c, d float64) (o float64) {
	o = a
	if b > o {
		o = b
	}
	if c > o {
		o = c
	}
	if d > o {
		o = d
	}
	return o
}

// Downscale max-pools a 28x28 image into 13x13, dropping the outer border
func Downscale(img []float64) (small [SmallImgSize * SmallImgSize]float64) {
	for y := 0; y < SmallImgSize; y++ {
		for x := 0; x < SmallImgSize; x++ {
			var base = 1 + ImgSize + 2*x + 2*y*ImgSize
			small[y*SmallImgSize+x] = max4(
				img[base],
				img[base+1],
				img[base+ImgSize],
				img[base+ImgSize+1],
			)
		}
	}
	return
}

// Ascii renders a downscaled image as text, one row per line
func Ascii(small [SmallImgSize * SmallImgSize]float64) string {
	const ramp = " .:-=+*#%@"
	var buf = make([]byte, 0, SmallImgSize*(SmallImgSize+1))
	for y := 0; y < SmallImgSize; y++ {
		for x := 0; x < SmallImgSize; x++ {
			var v = small[y*SmallImgSize+x]
			var i = int(v * float64(len(ramp)-1))
			if i < 0 {
				i = 0
			} else if i >= len(ramp) {
				i = len(ramp) - 1
			}
			buf = append(buf, ramp[i])
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
