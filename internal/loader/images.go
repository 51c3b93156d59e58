package loader

import (
	"image"
	"runtime"

	"github.com/alitto/pond/v2"
)

// LoadImages decodes every path on a worker pool. Results keep the order of
// paths. Decoding stops at the first error, which is returned.
func LoadImages(paths []string) ([]image.Image, error) {
	images := make([]image.Image, len(paths))
	if len(paths) == 0 {
		return images, nil
	}

	pool := pond.NewPool(runtime.GOMAXPROCS(0))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i, path := range paths {
		i, path := i, path
		group.SubmitErr(func() error {
			img, err := LoadImage(path)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
