package scheduler

import "sync"

// Strand 串行执行器
//
// 同一个 Strand 上的任务按 Post 顺序执行，任意时刻最多一个在运行。
// Strand 自身不占用 goroutine：有任务时向 Scheduler 提交一个 drain 任务，
// 队列清空后释放 worker。
type Strand struct {
	sched *Scheduler

	mu      sync.Mutex
	pending []Task
	running bool
}

// NewStrand 创建绑定到 s 的 Strand
func (s *Scheduler) NewStrand() *Strand {
	return &Strand{sched: s}
}

// Post 提交任务，不阻塞等待执行
func (st *Strand) Post(t Task) error {
	if t == nil {
		return nil
	}
	if st.sched.IsStopped() {
		return ErrStopped
	}

	st.mu.Lock()
	st.pending = append(st.pending, t)
	if st.running {
		st.mu.Unlock()
		return nil
	}
	st.running = true
	st.mu.Unlock()

	if err := st.sched.Post(st.drain); err != nil {
		st.mu.Lock()
		st.pending = nil
		st.running = false
		st.mu.Unlock()
		return err
	}
	return nil
}

// Len 返回尚未执行的任务数
func (st *Strand) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.pending)
}

func (st *Strand) drain() {
	for {
		st.mu.Lock()
		if len(st.pending) == 0 || st.sched.IsStopped() {
			st.pending = nil
			st.running = false
			st.mu.Unlock()
			return
		}
		t := st.pending[0]
		st.pending[0] = nil
		st.pending = st.pending[1:]
		st.mu.Unlock()

		st.sched.exec(t)
	}
}
