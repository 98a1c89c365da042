package packer

import (
	"sort"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Layout algorithm names.
const (
	AlgorithmTopDown     = "top-down"
	AlgorithmLeftRight   = "left-right"
	AlgorithmDiagonal    = "diagonal"
	AlgorithmAltDiagonal = "alt-diagonal"
	AlgorithmBinaryTree  = "binary-tree"
)

// item is one image to place; width and height already include padding.
type item struct {
	key           string
	width, height int
	x, y          int
}

type layoutFunc func(items []*item) (width, height int)

var layouts = map[string]layoutFunc{
	AlgorithmTopDown:     topDown,
	AlgorithmLeftRight:   leftRight,
	AlgorithmDiagonal:    diagonal,
	AlgorithmAltDiagonal: altDiagonal,
	AlgorithmBinaryTree:  binaryTree,
}

// Algorithms lists the supported layout names.
func Algorithms() []string {
	out := make([]string, 0, len(layouts))
	for name := range layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// arrange places items in place and returns the canvas size including the
// trailing padding.
func arrange(algorithm string, items []*item, opts map[string]any) (int, int, error) {
	fn, ok := layouts[algorithm]
	if !ok {
		return 0, 0, errors.PackingError("unsupported packing algorithm").
			WithContext("algorithm", algorithm).Build()
	}
	if sortEnabled(opts) {
		sortForAlgorithm(algorithm, items)
	}
	w, h := fn(items)
	return w, h, nil
}

// sortEnabled reads algorithmOpts.sort; items stay in path order unless set.
func sortEnabled(opts map[string]any) bool {
	v, ok := opts["sort"].(bool)
	return ok && v
}

func sortForAlgorithm(algorithm string, items []*item) {
	switch algorithm {
	case AlgorithmTopDown:
		sort.SliceStable(items, func(i, j int) bool { return items[i].height < items[j].height })
	case AlgorithmLeftRight:
		sort.SliceStable(items, func(i, j int) bool { return items[i].width < items[j].width })
	case AlgorithmDiagonal, AlgorithmAltDiagonal:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].width+items[i].height < items[j].width+items[j].height
		})
	}
}

func topDown(items []*item) (int, int) {
	w, y := 0, 0
	for _, it := range items {
		it.x, it.y = 0, y
		y += it.height
		w = max(w, it.width)
	}
	return w, y
}

func leftRight(items []*item) (int, int) {
	x, h := 0, 0
	for _, it := range items {
		it.x, it.y = x, 0
		x += it.width
		h = max(h, it.height)
	}
	return x, h
}

func diagonal(items []*item) (int, int) {
	x, y := 0, 0
	for _, it := range items {
		it.x, it.y = x, y
		x += it.width
		y += it.height
	}
	return x, y
}

func altDiagonal(items []*item) (int, int) {
	total := 0
	for _, it := range items {
		total += it.width
	}
	x, y := total, 0
	for _, it := range items {
		x -= it.width
		it.x, it.y = x, y
		y += it.height
	}
	return total, y
}

// binaryTree is a growing bin packer: blocks are sorted by their larger side
// (ties broken by key) and the root grows right or down when nothing fits.
func binaryTree(items []*item) (int, int) {
	if len(items) == 0 {
		return 0, 0
	}
	blocks := append([]*item(nil), items...)
	sort.SliceStable(blocks, func(i, j int) bool {
		mi, mj := max(blocks[i].width, blocks[i].height), max(blocks[j].width, blocks[j].height)
		if mi != mj {
			return mi > mj
		}
		return blocks[i].key < blocks[j].key
	})

	root := &node{w: blocks[0].width, h: blocks[0].height}
	for _, b := range blocks {
		if n := root.find(b.width, b.height); n != nil {
			n.split(b.width, b.height)
			b.x, b.y = n.x, n.y
			continue
		}
		var n *node
		root, n = root.grow(b.width, b.height)
		if n == nil {
			// unreachable: grow always makes room for a block no larger than the first
			continue
		}
		b.x, b.y = n.x, n.y
	}

	w, h := 0, 0
	for _, it := range items {
		w = max(w, it.x+it.width)
		h = max(h, it.y+it.height)
	}
	return w, h
}

type node struct {
	x, y, w, h  int
	used        bool
	right, down *node
}

func (n *node) find(w, h int) *node {
	if n.used {
		if r := n.right.find(w, h); r != nil {
			return r
		}
		return n.down.find(w, h)
	}
	if w <= n.w && h <= n.h {
		return n
	}
	return nil
}

func (n *node) split(w, h int) {
	n.used = true
	n.down = &node{x: n.x, y: n.y + h, w: n.w, h: n.h - h}
	n.right = &node{x: n.x + w, y: n.y, w: n.w - w, h: h}
}

func (n *node) grow(w, h int) (*node, *node) {
	canDown := w <= n.w
	canRight := h <= n.h
	shouldRight := canRight && n.h >= n.w+w
	shouldDown := canDown && n.w >= n.h+h

	switch {
	case shouldRight:
		return n.growRight(w, h)
	case shouldDown:
		return n.growDown(w, h)
	case canRight:
		return n.growRight(w, h)
	case canDown:
		return n.growDown(w, h)
	default:
		return n, nil
	}
}

func (n *node) growRight(w, h int) (*node, *node) {
	root := &node{
		used:  true,
		w:     n.w + w,
		h:     n.h,
		down:  n,
		right: &node{x: n.w, y: 0, w: w, h: n.h},
	}
	if f := root.find(w, h); f != nil {
		f.split(w, h)
		return root, f
	}
	return root, nil
}

func (n *node) growDown(w, h int) (*node, *node) {
	root := &node{
		used:  true,
		w:     n.w,
		h:     n.h + h,
		down:  &node{x: 0, y: n.h, w: n.w, h: h},
		right: n,
	}
	if f := root.find(w, h); f != nil {
		f.split(w, h)
		return root, f
	}
	return root, nil
}
