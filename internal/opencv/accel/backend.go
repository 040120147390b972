// Package accel runs degradation and scoring on OpenCV. It satisfies both the
// degrader's Accelerator and the scorer's Backend.
package accel

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/opencv/conversion"
	"image-score-harness/internal/opencv/memory"
	"image-score-harness/internal/opencv/safe"
	"image-score-harness/internal/score"
)

// Backend serialises OpenCV calls and recycles intermediate Mats
type Backend struct {
	pool   *memory.Pool
	logger logger.Logger
	mu     sync.Mutex
}

func New(pool *memory.Pool, log logger.Logger) *Backend {
	if pool == nil {
		pool = memory.NewPool(0)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Backend{pool: pool, logger: log}
}

// Blur renders a Gaussian blur of src into dst with sigma equal to radius
func (b *Backend) Blur(src, dst *image.RGBA, radius int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	in, err := conversion.RGBAToMat(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out := b.pool.Get(in.Rows(), in.Cols(), gocv.MatTypeCV8UC4)
	defer b.pool.Put(out)

	sigma := float64(radius)
	gocv.GaussianBlur(in, &out, image.Point{}, sigma, sigma, gocv.BorderReflect101)

	return conversion.MatToRGBA(out, dst)
}

// PSNR compares the colour channels of the pair
func (b *Backend) PSNR(reference, degraded *image.RGBA) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, deg, err := b.floatPair(reference, degraded)
	if err != nil {
		return 0, err
	}
	defer b.pool.Put(ref)
	defer b.pool.Put(deg)

	rows, cols := ref.Rows(), ref.Cols()
	diff := b.pool.Get(rows, cols, gocv.MatTypeCV32FC4)
	defer b.pool.Put(diff)
	sq := b.pool.Get(rows, cols, gocv.MatTypeCV32FC4)
	defer b.pool.Put(sq)

	gocv.Subtract(ref, deg, &diff)
	gocv.Multiply(diff, diff, &sq)

	mean := sq.Mean()
	mse := (mean.Val1 + mean.Val2 + mean.Val3) / 3
	return score.PSNRFromMSE(mse), nil
}

// MSSIM computes the mean SSIM map per RGBA channel
func (b *Backend) MSSIM(reference, degraded *image.RGBA) (models.MSSIM, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i1, i2, err := b.floatPair(reference, degraded)
	if err != nil {
		return models.MSSIM{}, err
	}
	defer b.pool.Put(i1)
	defer b.pool.Put(i2)

	rows, cols := i1.Rows(), i1.Cols()
	get := func() gocv.Mat {
		return b.pool.Get(rows, cols, gocv.MatTypeCV32FC4)
	}
	var temps []*gocv.Mat
	tmp := func() *gocv.Mat {
		m := get()
		temps = append(temps, &m)
		return &m
	}
	defer func() {
		for _, m := range temps {
			b.pool.Put(*m)
		}
	}()

	ksize := image.Pt(score.WindowSize, score.WindowSize)
	blur := func(src gocv.Mat) *gocv.Mat {
		dst := tmp()
		gocv.GaussianBlur(src, dst, ksize, score.WindowSigma, score.WindowSigma, gocv.BorderReflect101)
		return dst
	}
	mul := func(a, c gocv.Mat) *gocv.Mat {
		dst := tmp()
		gocv.Multiply(a, c, dst)
		return dst
	}
	// weighted returns alpha*a + beta*c + gamma on every channel
	weighted := func(a gocv.Mat, alpha float64, c gocv.Mat, beta, gamma float64) *gocv.Mat {
		dst := tmp()
		gocv.AddWeighted(a, alpha, c, beta, gamma, dst)
		return dst
	}

	const c1 = (0.01 * 255) * (0.01 * 255)
	const c2 = (0.03 * 255) * (0.03 * 255)

	mu1 := blur(i1)
	mu2 := blur(i2)
	mu1Sq := mul(*mu1, *mu1)
	mu2Sq := mul(*mu2, *mu2)
	mu12 := mul(*mu1, *mu2)

	sigma1Sq := weighted(*blur(*mul(i1, i1)), 1, *mu1Sq, -1, 0)
	sigma2Sq := weighted(*blur(*mul(i2, i2)), 1, *mu2Sq, -1, 0)
	sigma12 := weighted(*blur(*mul(i1, i2)), 1, *mu12, -1, 0)

	num := mul(*weighted(*mu12, 2, *mu12, 0, c1), *weighted(*sigma12, 2, *sigma12, 0, c2))
	den := mul(*weighted(*mu1Sq, 1, *mu2Sq, 1, c1), *weighted(*sigma1Sq, 1, *sigma2Sq, 1, c2))

	ssimMap := tmp()
	gocv.Divide(*num, *den, ssimMap)

	mean := ssimMap.Mean()
	return models.MSSIM{R: mean.Val1, G: mean.Val2, B: mean.Val3, A: mean.Val4}, nil
}

// floatPair uploads both images as CV_32FC4 Mats taken from the pool
func (b *Backend) floatPair(reference, degraded *image.RGBA) (gocv.Mat, gocv.Mat, error) {
	ref, err := b.upload(reference)
	if err != nil {
		return gocv.Mat{}, gocv.Mat{}, err
	}
	deg, err := b.upload(degraded)
	if err != nil {
		b.pool.Put(ref)
		return gocv.Mat{}, gocv.Mat{}, err
	}
	if err := safe.ValidatePair(&ref, &deg, "quality scoring"); err != nil {
		b.pool.Put(ref)
		b.pool.Put(deg)
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("%w: %v", score.ErrDimensionMismatch, err)
	}
	return ref, deg, nil
}

func (b *Backend) upload(img *image.RGBA) (gocv.Mat, error) {
	bytes, err := conversion.RGBAToMat(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer bytes.Close()

	out := b.pool.Get(bytes.Rows(), bytes.Cols(), gocv.MatTypeCV32FC4)
	bytes.ConvertTo(&out, gocv.MatTypeCV32FC4)
	return out, nil
}

// Shutdown releases pooled Mats
func (b *Backend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	released := b.pool.Cleanup()
	b.logger.Debug("OpenCVBackend", "released pooled Mats", map[string]interface{}{
		"count": released,
	})
}
