//go:build unix

package crashmarker

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	installMu    sync.Mutex
	installCount int
	signalCh     chan os.Signal
	stopCh       chan struct{}
)

var watchedSignals = []os.Signal{
	syscall.SIGSEGV,
	syscall.SIGABRT,
	syscall.SIGBUS,
	syscall.SIGILL,
	syscall.SIGFPE,
}

// Install arranges for a fatal signal to write the marker at path before
// the process dies. It is reference-counted and idempotent: repeated calls
// share one underlying signal.Notify registration, and the registration is
// torn down only once every Install has a matching Uninstall.
func Install(path string) (uninstall func(), err error) {
	installMu.Lock()
	defer installMu.Unlock()

	if installCount == 0 {
		signalCh = make(chan os.Signal, 1)
		stopCh = make(chan struct{})
		signal.Notify(signalCh, watchedSignals...)
		go watch(path, signalCh, stopCh)
	}
	installCount++

	return func() { uninstallOnce(&installMu) }, nil
}

func uninstallOnce(mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()
	if installCount == 0 {
		return
	}
	installCount--
	if installCount == 0 {
		signal.Stop(signalCh)
		close(stopCh)
	}
}

func watch(path string, ch chan os.Signal, stop chan struct{}) {
	for {
		select {
		case sig := <-ch:
			handle(path, sig)
			return
		case <-stop:
			return
		}
	}
}

// handle writes the marker then restores the signal's default disposition
// and re-raises it so the process terminates the way it would have without
// this package installed.
func handle(path string, sig os.Signal) {
	unixSig, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	writeMarker(path, int(unixSig))

	signal.Reset(sig)
	_ = syscall.Kill(syscall.Getpid(), unixSig)
}

// writeMarker performs the marker write using only open/write/close, with a
// pre-built byte buffer, to stay as close to async-signal-safe as pure Go
// allows (see the package doc comment for the gap this leaves).
func writeMarker(path string, sig int) {
	content := markerContent(sig)

	fd, err := syscall.Open(path, syscall.O_WRONLY|syscall.O_CREAT|syscall.O_TRUNC, 0o644)
	if err != nil {
		return
	}
	_, _ = syscall.Write(fd, content)
	_ = syscall.Close(fd)
}
