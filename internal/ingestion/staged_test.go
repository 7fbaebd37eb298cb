package ingestion

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStagedUploadIsTakenOnce(t *testing.T) {
	stage := newStagedUploads(time.Minute)
	owner := uuid.New()
	token := stage.put(owner, &parsedUpload{})

	const takers = 32
	var (
		wg    sync.WaitGroup
		won   atomic.Int32
		start = make(chan struct{})
	)
	for i := 0; i < takers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := stage.take(token, owner); ok {
				won.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := won.Load(); got != 1 {
		t.Fatalf("expected exactly one successful take, got %d", got)
	}
}

func TestStagedUploadRejectsOtherOwner(t *testing.T) {
	stage := newStagedUploads(time.Minute)
	owner := uuid.New()
	token := stage.put(owner, &parsedUpload{})

	if _, ok := stage.take(token, uuid.New()); ok {
		t.Fatalf("another owner must not take the upload")
	}
	if _, ok := stage.take(token, owner); !ok {
		t.Fatalf("a refused take must leave the upload staged")
	}
}
