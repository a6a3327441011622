package dispatcher

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/vodkit/hlsgrab/pkg/logging"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type DispatcherSuite struct {
	suite.Suite
}

type testWorker struct {
	sync.Mutex
	called    int
	seenTasks []string
}

func (worker *testWorker) Work(t Task) error {
	worker.Lock()
	worker.called++
	pl := t.Payload.(struct{ URL, Name string })
	worker.seenTasks = append(worker.seenTasks, pl.URL+pl.Name)
	worker.Unlock()
	t.SetResult(pl.URL + pl.Name)
	return nil
}

type slowWorker struct{}

func (worker *slowWorker) Work(t Task) error {
	time.Sleep(100 * time.Millisecond)
	return nil
}

type failingWorker struct{}

func (worker *failingWorker) Work(t Task) error {
	return fmt.Errorf("cannot handle %v", t.Payload)
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupSuite() {
	rand.Seed(time.Now().UTC().UnixNano())
	SetLogger(logging.Create("dispatcher", logging.Prod))
}

func (s *DispatcherSuite) TestDispatcher() {
	defer goleak.VerifyNone(s.T())

	worker := testWorker{seenTasks: []string{}}
	d := Start(20, &worker, 1000)

	results := []*Result{}

	for range [500]bool{} {
		r := d.Dispatch(struct{ URL, Name string }{URL: randomString(25), Name: randomString(96)})
		results = append(results, r)
	}

	for _, r := range results {
		r.Wait()
		s.Require().True(r.Done())
		s.Require().Equal(25+96, len(r.Value().(string)))
	}

	s.Equal(500, len(worker.seenTasks))
	s.Equal(500, worker.called)

	d.Stop()
}

func (s *DispatcherSuite) TestBlockingDispatch() {
	defer goleak.VerifyNone(s.T())

	worker := testWorker{seenTasks: []string{}}
	d := Start(5, &worker, 0)

	results := []*Result{}

	for range [20]bool{} {
		r := d.Dispatch(struct{ URL, Name string }{URL: randomString(25), Name: randomString(96)})
		results = append(results, r)
	}

	for _, r := range results {
		r.Wait()
		s.Require().True(r.Done())
	}

	s.Equal(20, len(worker.seenTasks))
	s.Equal(20, worker.called)

	d.Stop()
}

func (s *DispatcherSuite) TestTryDispatch() {
	defer goleak.VerifyNone(s.T())

	d := Start(1, &slowWorker{}, 0)

	occupied := d.Dispatch("first")
	time.Sleep(10 * time.Millisecond)
	queued := d.TryDispatch("second")
	time.Sleep(10 * time.Millisecond)
	dropped := d.TryDispatch("third")

	s.Require().True(dropped.Dropped())
	s.False(dropped.Done())
	dropped.Wait()

	occupied.Wait()
	queued.Wait()
	s.True(occupied.Done())
	s.True(queued.Done())

	d.Stop()
}

func (s *DispatcherSuite) TestFailingWorkload() {
	defer goleak.VerifyNone(s.T())

	d := Start(2, &failingWorker{}, 10)

	r := d.Dispatch("oversized payload").Wait()
	s.True(r.Failed())
	s.False(r.Done())
	s.EqualError(r.Error(), "cannot handle oversized payload")

	d.Stop()
}

func randomString(n int) string {
	var letter = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

	b := make([]rune, n)
	for i := range b {
		b[i] = letter[rand.Intn(len(letter))]
	}
	return string(b)
}
