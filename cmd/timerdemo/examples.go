package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/executor"
	"github.com/Baduit/Timer/metrics"
	"github.com/Baduit/Timer/waiter"
)

// examples walks through every timing primitive, printing what it measures.
// All delays go through scale so tests can run the walk-through quickly.
type examples struct {
	out     io.Writer
	scale   func(time.Duration) time.Duration
	metrics *metrics.Collector
}

func (e *examples) sleep(d time.Duration) {
	time.Sleep(e.scale(d))
}

func (e *examples) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}

func (e *examples) elapsed(ms int64) {
	e.printf("%d milliseconds\n", ms)
}

func (e *examples) run() error {
	e.simpleClock()
	e.pausableClock()
	e.cancelableWait()
	if err := e.deadline(); err != nil {
		return err
	}
	e.interval()
	return nil
}

func (e *examples) simpleClock() {
	e.printf("Clock\n")

	c := clock.New()
	e.sleep(time.Second)
	e.elapsed(c.ElapsedIn(time.Millisecond))

	c.Reset()
	e.elapsed(c.ElapsedIn(time.Millisecond))

	e.printf("End\n\n")
}

func (e *examples) pausableClock() {
	e.printf("PausableClock\n")

	pc := clock.NewPausable()
	e.sleep(time.Second)
	e.elapsed(pc.ElapsedIn(time.Millisecond))

	pc.Pause()
	e.sleep(time.Second)
	e.elapsed(pc.ElapsedIn(time.Millisecond))

	pc.Start()
	e.sleep(time.Second)
	e.elapsed(pc.ElapsedIn(time.Millisecond))

	e.printf("End\n\n")
}

func (e *examples) cancelableWait() {
	e.printf("Waiter\n")

	var w waiter.Waiter
	c := clock.New()
	w.Wait(e.scale(time.Second))
	e.elapsed(c.ElapsedIn(time.Millisecond))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.sleep(500 * time.Millisecond)
		w.WakeOne()
	}()

	c.Reset()
	woken := w.WaitWoken(e.scale(time.Second))
	e.elapsed(c.ElapsedIn(time.Millisecond))
	wg.Wait()
	e.printf("woken early: %t\n", woken)

	e.printf("End\n\n")
}

func (e *examples) deadline() error {
	e.printf("Deadline\n")

	dl, fut := executor.AfterFunc(e.scale(2*time.Second), func() (int, error) {
		e.printf("At the end of the world;\n")
		return 5, nil
	}, executor.WithName("demo-deadline"), executor.WithMetrics(e.metrics))
	defer dl.Close()

	result, err := fut.Get()
	if err != nil {
		return fmt.Errorf("deadline example: %w", err)
	}
	e.printf("%d\n", result)

	greeter, _ := executor.AfterFunc(e.scale(time.Second), func() (struct{}, error) {
		e.printf("Hello from the other side.\n")
		return struct{}{}, nil
	}, executor.WithName("demo-greeter"), executor.WithMetrics(e.metrics))
	e.sleep(1200 * time.Millisecond)
	_ = greeter.Close()

	e.printf("End\n\n")
	return nil
}

func (e *examples) interval() {
	e.printf("Interval\n")

	iv := executor.Every(e.scale(300*time.Millisecond), func() error {
		e.printf("At the end of the world;\n")
		return nil
	}, executor.WithName("demo-interval"), executor.WithMetrics(e.metrics))
	e.sleep(time.Second)
	iv.HardStop()

	e.printf("End\n")
}
