package atomic_count

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicCount(t *testing.T) {
	Convey("When AtomicIncrement is called", t, func() {
		Convey("When multiple writers increment the count concurrently", func() {
			count := NewAtomicCount(0)
			numOps := 3000
			numWriters := 200

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(numWriters)
			incrementer := func() {
				<-start
				for i := 0; i < numOps; i++ {
					count.AtomicIncrement()
				}
				wg.Done()
			}

			for i := 0; i < numWriters; i++ {
				go incrementer()
			}

			// Wait for goroutines to begin
			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(count.AtomicRead(), ShouldEqual, uint64(numOps*numWriters))
		})
	})

	Convey("When AtomicAdd is called", t, func() {
		Convey("When multiple writers add and retry on rejection", func() {
			count := NewAtomicCount(5)
			numOps := 1000
			numWriters := 50

			wg := sync.WaitGroup{}
			wg.Add(numWriters)
			for i := 0; i < numWriters; i++ {
				go func() {
					defer wg.Done()
					for i := 0; i < numOps; i++ {
						for succeeded := false; !succeeded; _, succeeded = count.AtomicAdd(2) {
						}
					}
				}()
			}

			wg.Wait()
			So(count.AtomicRead(), ShouldEqual, uint64(5+2*numOps*numWriters))
		})

		Convey("When uncontended, the add succeeds and returns the new value", func() {
			count := NewAtomicCount(1)
			newVal, ok := count.AtomicAdd(3)
			So(ok, ShouldBeTrue)
			So(newVal, ShouldEqual, uint64(4))
			So(count.AtomicRead(), ShouldEqual, uint64(4))
		})
	})
}
