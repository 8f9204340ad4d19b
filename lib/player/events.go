package player

type EventListener func(data any)

func (p *Player) AddEventListener(event string, callback func(data any)) {
	p.listenerMu.Lock()
	defer p.listenerMu.Unlock()
	p.listener[event] = append(p.listener[event], callback)
}

func (p *Player) invoke(event string, data any) {
	p.listenerMu.Lock()
	listeners := p.listener[event]
	p.listenerMu.Unlock()
	for _, listener := range listeners {
		go listener(data)
	}
}
