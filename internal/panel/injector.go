package panel

import "sync"

// Injector 保证每个页面只注入一次面板。
// 标记在首次成功注入后设置，之后不再重置。
type Injector struct {
	mu       sync.Mutex
	injected bool
}

// Inject 执行 mount；已注入时直接返回 false。mount 失败不设置标记。
func (i *Injector) Inject(mount func() error) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.injected {
		return false, nil
	}
	if err := mount(); err != nil {
		return false, err
	}
	i.injected = true
	return true, nil
}

func (i *Injector) Injected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.injected
}
