package dispatcher

import (
	"fmt"
	"sync"
)

const (
	TaskFailed = iota
	TaskDone
	TaskActive
	TaskPending
	TaskDropped
)

type Task struct {
	Payload interface{}
	result  *Result
}

// SetResult saves the workload output so it can be read through Result.Value
// once the task is done.
func (t Task) SetResult(v interface{}) {
	t.result.mu.Lock()
	t.result.value = v
	t.result.mu.Unlock()
}

type Result struct {
	mu     sync.Mutex
	status int
	err    error
	value  interface{}
	done   chan struct{}
}

func newResult() *Result {
	return &Result{status: TaskPending, done: make(chan struct{})}
}

func (r *Result) setStatus(s int) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

func (r *Result) finish(err error) {
	r.mu.Lock()
	if err != nil {
		r.status = TaskFailed
		r.err = err
	} else {
		r.status = TaskDone
	}
	r.mu.Unlock()
	close(r.done)
}

func (r *Result) drop() {
	r.mu.Lock()
	r.status = TaskDropped
	r.mu.Unlock()
	close(r.done)
}

// Wait blocks until the task has been processed or dropped.
func (r *Result) Wait() *Result {
	<-r.done
	return r
}

func (r *Result) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == TaskDone
}

func (r *Result) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == TaskFailed
}

func (r *Result) Dropped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == TaskDropped
}

func (r *Result) Error() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Result) Value() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

type Workload interface {
	Work(Task) error
}

type Worker struct {
	id    string
	tasks chan Task
	pool  chan chan Task
	stop  chan struct{}
	wl    Workload
	gwait *sync.WaitGroup
}

func newWorker(id int, workerPool chan chan Task, wl Workload, gwait *sync.WaitGroup) Worker {
	return Worker{
		id:    fmt.Sprintf("%T#%v", wl, id),
		tasks: make(chan Task),
		pool:  workerPool,
		stop:  make(chan struct{}),
		wl:    wl,
		gwait: gwait,
	}
}

// Start starts reading from tasks channel
func (w *Worker) Start() {
	logger.Debugf("spawned dispatch worker %v", w.id)
	w.gwait.Add(1)
	go func() {
		for {
			w.pool <- w.tasks

			select {
			case t := <-w.tasks:
				t.result.setStatus(TaskActive)
				DispatcherTasksActive.Inc()
				err := w.wl.Work(t)
				DispatcherTasksActive.Dec()
				if err != nil {
					DispatcherTasksFailed.WithLabelValues(w.id).Inc()
					logger.Errorw("workload failed", "wid", w.id, "err", err)
				} else {
					DispatcherTasksDone.WithLabelValues(w.id).Inc()
				}
				t.result.finish(err)
			case <-w.stop:
				close(w.tasks)
				logger.Debugf("stopped dispatch worker %v", w.id)
				w.gwait.Done()
				return
			}
		}
	}()
}

// Stop stops the wl invocation cycle (it will finish the current wl).
func (w *Worker) Stop() {
	w.stop <- struct{}{}
}

type Dispatcher struct {
	workerPool chan chan Task
	workers    []*Worker
	tasks      chan Task
	stop       chan struct{}
	gwait      *sync.WaitGroup
}

// Start spins up `workers` goroutines all running the supplied workload.
// buffer sets how many tasks can be queued up before Dispatch starts to block.
func Start(workers int, wl Workload, buffer int) Dispatcher {
	d := Dispatcher{
		workerPool: make(chan chan Task, workers),
		tasks:      make(chan Task, buffer),
		stop:       make(chan struct{}),
		gwait:      &sync.WaitGroup{},
	}

	for i := 0; i < workers; i++ {
		w := newWorker(i, d.workerPool, wl, d.gwait)
		d.workers = append(d.workers, &w)
		w.Start()
	}

	go func() {
		for {
			select {
			case t := <-d.tasks:
				DispatcherQueueLength.Dec()
				wq := <-d.workerPool
				wq <- t
			case <-d.stop:
				for _, w := range d.workers {
					w.Stop()
				}
				return
			}
		}
	}()

	return d
}

func (d *Dispatcher) Dispatch(payload interface{}) *Result {
	r := newResult()
	d.tasks <- Task{Payload: payload, result: r}
	DispatcherQueueLength.Inc()
	DispatcherTasksQueued.Inc()
	return r
}

// TryDispatch drops the task instead of blocking when the queue is full.
func (d *Dispatcher) TryDispatch(payload interface{}) *Result {
	r := newResult()
	select {
	case d.tasks <- Task{Payload: payload, result: r}:
		DispatcherQueueLength.Inc()
		DispatcherTasksQueued.Inc()
	default:
		DispatcherTasksDropped.Inc()
		r.drop()
	}
	return r
}

func (d Dispatcher) Stop() {
	close(d.stop)
	d.gwait.Wait()
	logger.Infof("all %v workers are stopped", len(d.workers))
}
