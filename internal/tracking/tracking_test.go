package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayusman/carnival/internal/capture"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

func TestManual_SubscribeUnsubscribe(t *testing.T) {
	m := NewManual()

	var got []detector.Frame
	unsub := m.Subscribe(func(f detector.Frame) {
		got = append(got, f)
	})

	m.Emit(detector.Frame{Width: 1})
	m.Emit(detector.Frame{Width: 2})
	unsub()
	m.Emit(detector.Frame{Width: 3})

	if len(got) != 2 {
		t.Fatalf("received %d frames, want 2", len(got))
	}
	if got[1].Width != 2 {
		t.Errorf("second frame width = %d, want 2", got[1].Width)
	}
	if m.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", m.Subscribers())
	}

	// A second call is harmless.
	unsub()
}

func TestManual_OpenError(t *testing.T) {
	m := NewManual()
	m.SetOpenError(capture.ErrPermissionDenied)

	if err := m.Open(context.Background()); !errors.Is(err, capture.ErrPermissionDenied) {
		t.Errorf("Open() error = %v, want ErrPermissionDenied", err)
	}
	if m.Opens() != 1 {
		t.Errorf("Opens() = %d, want 1", m.Opens())
	}
}

func TestFanout_UnsubscribeWaitsForDelivery(t *testing.T) {
	m := NewManual()

	entered := make(chan struct{})
	release := make(chan struct{})
	var after atomic.Int32
	unsubscribed := make(chan struct{})

	unsub := m.Subscribe(func(detector.Frame) {
		select {
		case <-unsubscribed:
			after.Add(1)
		default:
		}
		close(entered)
		<-release
	})

	go m.Emit(detector.Frame{})
	<-entered

	done := make(chan struct{})
	go func() {
		unsub()
		close(unsubscribed)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("unsubscribe returned while a delivery was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done

	m.Emit(detector.Frame{})
	if after.Load() != 0 {
		t.Error("callback ran after unsubscribe returned")
	}
}

func TestRemote_OpenWaitsForClient(t *testing.T) {
	r := NewRemote(zerolog.Nop())

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Open(context.Background())
	}()

	select {
	case err := <-errCh:
		t.Fatalf("Open returned before a client attached: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	r.Attach()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Open did not return after Attach")
	}
}

func TestRemote_Denied(t *testing.T) {
	r := NewRemote(zerolog.Nop())
	r.Attach()
	r.Deny("NotAllowedError")

	err := r.Open(context.Background())
	if !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("Open() error = %v, want ErrPermissionDenied", err)
	}

	// A fresh session clears the denial.
	r.Attach()
	if err := r.Open(context.Background()); err != nil {
		t.Errorf("Open() after reattach = %v", err)
	}
}

func TestRemote_OpenCancelled(t *testing.T) {
	r := NewRemote(zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := r.Open(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Open() error = %v, want deadline exceeded", err)
	}
}

func TestRemote_Push(t *testing.T) {
	r := NewRemote(zerolog.Nop())
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	var mu sync.Mutex
	var got []detector.Frame
	unsub := r.Subscribe(func(f detector.Frame) {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
	})
	defer unsub()

	r.Push(detector.Frame{})
	stamped := fixed.Add(time.Hour)
	r.Push(detector.Frame{At: stamped})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("received %d frames, want 2", len(got))
	}
	if !got[0].At.Equal(fixed) {
		t.Errorf("unstamped frame At = %v, want %v", got[0].At, fixed)
	}
	if !got[1].At.Equal(stamped) {
		t.Errorf("stamped frame At = %v, want %v", got[1].At, stamped)
	}
	if r.Received() != 2 {
		t.Errorf("Received() = %d, want 2", r.Received())
	}
}

func TestRemote_Detach(t *testing.T) {
	r := NewRemote(zerolog.Nop())
	r.Attach()
	r.Attach()
	r.Detach()
	r.Detach()
	r.Detach()
	if r.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", r.Clients())
	}
}

type failingStarter struct {
	*detector.MockDetector
}

func (failingStarter) Start() error { return errors.New("no module named mediapipe") }

func TestCameraSource_OpenFailures(t *testing.T) {
	t.Run("camera denied", func(t *testing.T) {
		cam := capture.NewMockCamera(nil, false)
		cam.SetOpenError(errors.New("device busy"))

		src := NewCameraSource(CameraOptions{Camera: cam, Detector: detector.NewMockDetector(), Log: zerolog.Nop()})
		err := src.Open(context.Background())
		if !errors.Is(err, capture.ErrPermissionDenied) {
			t.Errorf("Open() error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("model load", func(t *testing.T) {
		cam := capture.NewMockCamera(nil, false)
		det := failingStarter{detector.NewMockDetector()}

		src := NewCameraSource(CameraOptions{Camera: cam, Detector: det, Log: zerolog.Nop()})
		err := src.Open(context.Background())
		if !errors.Is(err, detector.ErrModelLoad) {
			t.Errorf("Open() error = %v, want ErrModelLoad", err)
		}
		if cam.IsOpen() {
			t.Error("camera should be released when the model fails to load")
		}
	})
}

// blockingStarter holds Start until release is closed.
type blockingStarter struct {
	*detector.MockDetector
	started chan struct{}
	release chan struct{}
}

func (b blockingStarter) Start() error {
	close(b.started)
	<-b.release
	return nil
}

func TestCameraSource_CloseDuringOpen(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	det := blockingStarter{
		MockDetector: detector.NewMockDetector(),
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	src := NewCameraSource(CameraOptions{Camera: cam, Detector: det, Log: zerolog.Nop()})

	opened := make(chan error, 1)
	go func() { opened <- src.Open(context.Background()) }()
	<-det.started

	closed := make(chan struct{})
	go func() {
		src.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on an Open in progress")
	}

	close(det.release)
	if err := <-opened; !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
	if cam.IsOpen() {
		t.Error("aborted Open should release the camera")
	}

	// The source can be opened again afterwards.
	ok := blockingStarter{
		MockDetector: detector.NewMockDetector(),
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	close(ok.release)
	src.detector = ok
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	src.Close()
	src.Wait()
	if cam.IsOpen() {
		t.Error("Close should release the camera")
	}
}

func TestCameraSource_Pump(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&img}, true)
	cam.SetFPS(60)
	det := detector.NewMockDetector()
	h := detector.HandAt(detector.PosePeace, 320, 400)
	det.SetFrame(detector.Frame{Hands: []detector.HandLandmarks{h}})

	src := NewCameraSource(CameraOptions{Camera: cam, Detector: det, Log: zerolog.Nop()})

	frames := make(chan detector.Frame, 16)
	unsub := src.Subscribe(func(f detector.Frame) {
		select {
		case frames <- f:
		default:
		}
	})
	defer unsub()

	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	select {
	case f := <-frames:
		if len(f.Hands) != 1 {
			t.Errorf("frame has %d hands, want 1", len(f.Hands))
		}
		if f.Width != 640 || f.Height != 480 {
			t.Errorf("frame size = %dx%d, want 640x480", f.Width, f.Height)
		}
		if f.At.IsZero() {
			t.Error("frame should be timestamped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame published")
	}

	preview := gocv.NewMat()
	defer preview.Close()
	if !src.Latest(&preview) || preview.Cols() != 640 {
		t.Error("Latest should hold the last camera image")
	}

	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	src.Wait()
	if cam.IsOpen() {
		t.Error("Close should release the camera")
	}
}

var (
	_ Source = (*Manual)(nil)
	_ Source = (*Remote)(nil)
	_ Source = (*CameraSource)(nil)
)
