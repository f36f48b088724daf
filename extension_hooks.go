package webhooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-webhooks/core"
)

// PayloadDecoder turns stored payload bytes into a typed event payload.
type PayloadDecoder func(data []byte) (core.EventPayload, error)

// PayloadDecoderPack groups decoders a host registers for event types the
// built-in tagged union does not cover.
type PayloadDecoderPack struct {
	Name     string
	Decoders map[core.EventType]PayloadDecoder
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

// ExtensionHooks lets hosts plug custom payload decoders and command/query
// bundles into the engine without forking the wiring.
type ExtensionHooks struct {
	mu sync.RWMutex

	decoderPacks map[string]PayloadDecoderPack
	bundles      map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		decoderPacks: map[string]PayloadDecoderPack{},
		bundles:      map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterDecoderPack(pack PayloadDecoderPack) error {
	if h == nil {
		return fmt.Errorf("webhooks: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("webhooks: decoder pack name is required")
	}
	if len(pack.Decoders) == 0 {
		return fmt.Errorf("webhooks: decoder pack %q has no decoders", name)
	}

	normalized := PayloadDecoderPack{
		Name:     name,
		Decoders: make(map[core.EventType]PayloadDecoder, len(pack.Decoders)),
	}
	for event, decoder := range pack.Decoders {
		key := core.EventType(strings.TrimSpace(strings.ToLower(string(event))))
		if key == "" {
			return fmt.Errorf("webhooks: decoder pack %q contains empty event type", name)
		}
		if decoder == nil {
			return fmt.Errorf("webhooks: decoder pack %q has nil decoder for %q", name, key)
		}
		normalized.Decoders[key] = decoder
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.decoderPacks[name]; exists {
		return fmt.Errorf("webhooks: decoder pack %q already registered", name)
	}
	h.decoderPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("webhooks: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("webhooks: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("webhooks: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("webhooks: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// DecodePayload resolves registered decoders before falling back to the
// built-in tagged union. Packs are consulted in name order so resolution
// stays deterministic when two packs claim the same event type.
func (h *ExtensionHooks) DecodePayload(event core.EventType, data []byte) (core.EventPayload, error) {
	if h != nil {
		key := core.EventType(strings.TrimSpace(strings.ToLower(string(event))))

		h.mu.RLock()
		names := make([]string, 0, len(h.decoderPacks))
		for name := range h.decoderPacks {
			names = append(names, name)
		}
		sort.Strings(names)
		var decoder PayloadDecoder
		for _, name := range names {
			if candidate, ok := h.decoderPacks[name].Decoders[key]; ok {
				decoder = candidate
				break
			}
		}
		h.mu.RUnlock()

		if decoder != nil {
			return decoder(data)
		}
	}
	return core.DecodeEventPayload(event, data)
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("webhooks: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) DecoderPackNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.decoderPacks))
	for name := range h.decoderPacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
