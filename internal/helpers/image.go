package helpers

import (
	"fmt"

	"gocv.io/x/gocv"
)

// EncodeJPEG encodes a BGR Mat as JPEG with the given quality (1-100).
func EncodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot encode empty mat")
	}
	if quality < 1 || quality > 100 {
		quality = 85
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
