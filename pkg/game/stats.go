package game

import "time"

// StatsSample 一次统计采样
type StatsSample struct {
	At        time.Time // 采样时间
	FPS       float64   // 当时的帧率
	FishCount int       // 当时的鱼数量
}

// statsCapacity 采样环形缓冲容量（1 秒一次采样，约 5 分钟历史）
const statsCapacity = 300

// StatsRecorder 记录 FPS 与鱼数量的时间序列，供数据面板读取
//
// 固定容量环形缓冲，写满后覆盖最旧样本。单线程事件循环内使用，无锁。
type StatsRecorder struct {
	samples []StatsSample
	next    int  // 下一个写入位置
	full    bool // 是否已写满一圈
}

// NewStatsRecorder 创建统计记录器
func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{
		samples: make([]StatsSample, statsCapacity),
	}
}

// Record 写入一次采样
func (r *StatsRecorder) Record(at time.Time, fps float64, fishCount int) {
	r.samples[r.next] = StatsSample{At: at, FPS: fps, FishCount: fishCount}
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Len 返回已记录的样本数
func (r *StatsRecorder) Len() int {
	if r.full {
		return len(r.samples)
	}
	return r.next
}

// Snapshot 返回按时间先后排列的样本副本
// 返回副本而非内部切片，调用方可以任意持有
func (r *StatsRecorder) Snapshot() []StatsSample {
	if !r.full {
		out := make([]StatsSample, r.next)
		copy(out, r.samples[:r.next])
		return out
	}
	out := make([]StatsSample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	out = append(out, r.samples[:r.next]...)
	return out
}

// Latest 返回最近一次采样，无样本时第二个返回值为 false
func (r *StatsRecorder) Latest() (StatsSample, bool) {
	if r.next == 0 && !r.full {
		return StatsSample{}, false
	}
	i := r.next - 1
	if i < 0 {
		i = len(r.samples) - 1
	}
	return r.samples[i], true
}
