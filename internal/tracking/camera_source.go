package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/carnival/internal/capture"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// starter is implemented by detectors that can be warmed up before the
// first frame.
type starter interface {
	Start() error
}

// CameraOptions configures a CameraSource.
type CameraOptions struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Gate throttles capture while the scene is still. Nil runs the
	// detector on every frame at the camera's rate.
	Gate *capture.MotionGate
	Log  zerolog.Logger
}

// CameraSource reads the local webcam, runs the landmark detector and
// fans the results out to subscribers.
//
// Close never blocks on the device: an Open in progress is aborted and
// releases what it acquired, and a running capture loop releases the
// camera and detector on its way out. The next Open waits for that.
type CameraSource struct {
	fanout

	camera   capture.Camera
	detector detector.Detector
	gate     *capture.MotionGate
	log      zerolog.Logger

	openMu  sync.Mutex // serializes Open; Close never takes it
	mu      sync.Mutex
	abort   context.CancelFunc // set while Open is acquiring
	running bool
	cancel  context.CancelFunc
	done    chan struct{} // closed once the last loop released its devices
	latest  gocv.Mat
}

// NewCameraSource creates a CameraSource. Nothing is acquired until Open.
func NewCameraSource(opts CameraOptions) *CameraSource {
	return &CameraSource{
		camera:   opts.Camera,
		detector: opts.Detector,
		gate:     opts.Gate,
		log:      opts.Log.With().Str("component", "camera-source").Logger(),
		latest:   gocv.NewMat(),
	}
}

// Open acquires the camera, warms the detector and starts the capture loop.
func (s *CameraSource) Open(ctx context.Context) error {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	openCtx, abort := context.WithCancel(ctx)
	defer abort()
	s.abort = abort
	prev := s.done
	s.mu.Unlock()

	err := s.acquire(openCtx, prev)
	acquired := err == nil

	s.mu.Lock()
	s.abort = nil
	if acquired {
		if err = openCtx.Err(); err == nil {
			loopCtx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			s.done = make(chan struct{})
			s.running = true
			go s.run(loopCtx, s.done)
		}
	}
	s.mu.Unlock()

	if err != nil {
		if acquired {
			s.release()
			s.log.Debug().Msg("camera source open aborted")
		}
		return err
	}
	s.log.Info().Int("fps", s.camera.FPS()).Msg("camera source started")
	return nil
}

// acquire waits for the previous loop to let go of the devices, then opens
// the camera and starts the detector. On error nothing is left open.
func (s *CameraSource) acquire(ctx context.Context, prev <-chan struct{}) error {
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := s.camera.Open(); err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
	}

	if st, ok := s.detector.(starter); ok {
		if err := st.Start(); err != nil {
			s.camera.Close()
			s.detector.Close()
			if errors.Is(err, detector.ErrModelLoad) {
				return err
			}
			return fmt.Errorf("%w: %v", detector.ErrModelLoad, err)
		}
	}
	return nil
}

// release closes the camera and detector and drops the preview image.
func (s *CameraSource) release() {
	if err := s.camera.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close camera")
	}
	if err := s.detector.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close detector")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest.Close()
	s.latest = gocv.NewMat()
}

// run is the capture loop. It switches between idle and active frame
// rates as the motion gate opens and closes.
func (s *CameraSource) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.release()

	fps := s.camera.FPS()
	if s.gate != nil {
		fps = capture.IdleFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if next := s.step(now); next != fps {
				fps = next
				s.camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
				s.log.Debug().Int("fps", fps).Msg("capture rate changed")
			}
		}
	}
}

// step reads and processes one frame and returns the frame rate to use next.
func (s *CameraSource) step(now time.Time) int {
	fps := s.camera.FPS()

	mat, err := s.camera.ReadFrame()
	if err != nil {
		s.log.Warn().Err(err).Msg("read frame")
		return fps
	}
	defer mat.Close()

	s.mu.Lock()
	mat.CopyTo(&s.latest)
	s.mu.Unlock()

	if s.gate != nil {
		active := s.gate.Observe(mat, now)
		fps = s.gate.FPS(now)
		if !active {
			return fps
		}
	}

	frame, err := s.detector.Detect(mat)
	if err != nil {
		s.log.Warn().Err(err).Msg("detect landmarks")
		return fps
	}
	frame.At = now
	if frame.Width == 0 {
		frame.Width, frame.Height = mat.Cols(), mat.Rows()
	}

	s.publish(frame)
	return fps
}

func (s *CameraSource) Subscribe(fn func(detector.Frame)) func() {
	return s.subscribe(fn)
}

// Latest copies the most recent camera image into dst. It returns false
// before the first frame.
func (s *CameraSource) Latest(dst *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest.Empty() {
		return false
	}
	s.latest.CopyTo(dst)
	return true
}

// Close stops the capture loop, or aborts an Open in progress. It returns
// without waiting for the devices to be released.
func (s *CameraSource) Close() error {
	s.mu.Lock()
	abort, cancel := s.abort, s.cancel
	running := s.running
	s.abort = nil
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	switch {
	case abort != nil:
		abort()
	case running:
		cancel()
	default:
		return nil
	}
	s.clear()
	return nil
}

// Wait blocks until a closed source has released the camera and detector.
func (s *CameraSource) Wait() {
	s.openMu.Lock()
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	s.openMu.Unlock()

	if done != nil {
		<-done
	}
}
