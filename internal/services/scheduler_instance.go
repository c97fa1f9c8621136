package services

import "sync"

var (
	reconcileSchedulerInstance *ReconciliationScheduler
	reconcileSchedulerOnce     sync.Once
)

// SetReconciliationScheduler 设置全局对账调度器实例
func SetReconciliationScheduler(scheduler *ReconciliationScheduler) {
	reconcileSchedulerOnce.Do(func() {
		reconcileSchedulerInstance = scheduler
	})
}

// GetReconciliationScheduler 获取全局对账调度器实例
func GetReconciliationScheduler() *ReconciliationScheduler {
	return reconcileSchedulerInstance
}
