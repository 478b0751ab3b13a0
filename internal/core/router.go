package core

import (
	"sort"
	"strings"

	"github.com/beetlebot/booking-cli/internal/config"
)

type Router struct {
	cfg      *config.Config
	adapters []PriceAdapter
}

func NewRouter(cfg *config.Config) *Router {
	return &Router{cfg: cfg}
}

func (r *Router) Register(a PriceAdapter) {
	r.adapters = append(r.adapters, a)
}

// ActiveAdapters returns the adapters to query for the current mode, highest
// configured priority first. Registration order breaks ties.
func (r *Router) ActiveAdapters() []PriceAdapter {
	var out []PriceAdapter
	for _, a := range r.adapters {
		if r.shouldUse(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.priority(out[i].Name()) > r.priority(out[j].Name())
	})
	return out
}

func (r *Router) shouldUse(a PriceAdapter) bool {
	if r.disabled(a.Name()) {
		return false
	}
	switch r.cfg.Mode {
	case config.ModeMock:
		return isMockProvider(a.Name())
	case config.ModeLive:
		return !isMockProvider(a.Name())
	case config.ModeHybrid:
		if !isMockProvider(a.Name()) {
			avail, _ := a.Available()
			return avail && r.cfg.ProviderHasCredentials(a.Name())
		}
		return r.noLiveAlternative()
	}
	return false
}

func (r *Router) noLiveAlternative() bool {
	for _, a := range r.adapters {
		if isMockProvider(a.Name()) || r.disabled(a.Name()) {
			continue
		}
		if avail, _ := a.Available(); avail && r.cfg.ProviderHasCredentials(a.Name()) {
			return false
		}
	}
	return true
}

func (r *Router) disabled(name string) bool {
	pc, ok := r.cfg.Providers[name]
	return ok && !pc.Enabled
}

func (r *Router) priority(name string) int {
	return r.cfg.Providers[name].Priority
}

func isMockProvider(name string) bool {
	return strings.HasPrefix(name, "mock_")
}

func (r *Router) ProviderInfos() []ProviderInfo {
	var infos []ProviderInfo
	for _, a := range r.adapters {
		info := ProviderInfo{
			Name:         a.Name(),
			Capabilities: a.Capabilities(),
			Tier:         a.Tier(),
		}
		if avail, reason := a.Available(); avail {
			info.Status = "active"
		} else {
			info.Status = "no_credentials"
			info.Reason = reason
		}
		switch {
		case r.disabled(a.Name()):
			info.Status = "disabled"
			info.Reason = "disabled in config"
		case r.cfg.Mode == config.ModeMock && !isMockProvider(a.Name()):
			info.Status = "inactive"
			info.Reason = "mode is mock"
		case r.cfg.Mode == config.ModeLive && isMockProvider(a.Name()):
			info.Status = "inactive"
			info.Reason = "mode is live"
		}
		infos = append(infos, info)
	}
	return infos
}
