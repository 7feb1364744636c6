package imaging

import "image"

// Components returns the bounding rectangles of the 8-connected Ink regions
// of bin with at least minPixels pixels, in raster order of each region's
// first pixel.
func Components(bin *image.Gray, minPixels int) []image.Rectangle {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	ink := func(x, y int) bool {
		return bin.Pix[bin.PixOffset(b.Min.X+x, b.Min.Y+y)] == Ink
	}

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

	visited := make([]bool, w*h)
	queue := make([]int, 0, 1024)
	var rects []image.Rectangle

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			start := y*w + x
			if visited[start] || !ink(x, y) {
				continue
			}

			visited[start] = true
			queue = append(queue[:0], start)
			minX, minY, maxX, maxY := x, y, x, y
			size := 0

			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				size++

				cx, cy := cur%w, cur/w
				if cx < minX {
					minX = cx
				}
				if cx > maxX {
					maxX = cx
				}
				if cy > maxY {
					maxY = cy
				}
				for d := 0; d < 8; d++ {
					nx, ny := cx+dx[d], cy+dy[d]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if !visited[ni] && ink(nx, ny) {
						visited[ni] = true
						queue = append(queue, ni)
					}
				}
			}

			if size >= minPixels {
				rects = append(rects, image.Rect(
					b.Min.X+minX, b.Min.Y+minY,
					b.Min.X+maxX+1, b.Min.Y+maxY+1,
				))
			}
		}
	}
	return rects
}
