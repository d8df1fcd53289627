// Package core wires the engine together behind one Service facade: the
// live graph and component stores, the codec and serializer, the loader,
// the diff/override engines and the storage collaborators. The facade owns
// the current scene identity and records one metric observation per
// operation.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"scenecore/internal/codec"
	"scenecore/internal/graph"
	"scenecore/internal/loader"
	"scenecore/internal/overrides"
	"scenecore/internal/registry"
	"scenecore/internal/scenestore"
	"scenecore/internal/scriptstore"
	"scenecore/internal/serializer"
	"scenecore/internal/validator"
	"scenecore/pkg/scene"
)

// Config wires a Service. Every field is optional; zero values fall back to
// in-memory stores, the built-in defaults registry, the standard validator,
// a no-op logger and a no-op metrics recorder.
type Config struct {
	Scenes    scenestore.Store
	Scripts   scriptstore.Store
	Codec     *codec.Codec
	Validator *validator.Engine
	Logger    *zap.Logger
	Metrics   MetricsRecorder
	Now       func() time.Time
}

// Service is the engine facade. It is single-threaded by contract, matching
// the graph stores underneath it; the storage collaborators keep their own
// locks.
type Service struct {
	graph      *graph.Graph
	components *graph.ComponentStore
	materials  *registry.Materials
	prefabs    *registry.Prefabs

	codec      *codec.Codec
	serializer *serializer.Serializer
	loader     *loader.Loader
	applier    *overrides.Applier

	scenes  scenestore.Store
	scripts scriptstore.Store

	logger  *zap.Logger
	metrics MetricsRecorder
	nowFn   func() time.Time

	sceneID         string
	inputAssets     json.RawMessage
	lockedEntityIDs []string
}

// New constructs a service from cfg.
func New(cfg Config) *Service {
	c := cfg.Codec
	if c == nil {
		c = codec.New(codec.DefaultRegistry())
	}
	v := cfg.Validator
	if v == nil {
		v = validator.New(validator.Config{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetricsRecorder{}
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	scenes := cfg.Scenes
	if scenes == nil {
		scenes = scenestore.NewMemory()
	}
	scripts := cfg.Scripts
	if scripts == nil {
		scripts = scriptstore.NewMemory()
	}

	g := graph.New()
	components := graph.NewComponentStore()
	return &Service{
		graph:      g,
		components: components,
		materials:  registry.NewMaterials(),
		prefabs:    registry.NewPrefabs(),
		codec:      c,
		serializer: serializer.New(c),
		loader: loader.New(loader.Config{
			Codec:     c,
			Validator: v,
			Scripts:   scripts,
			Logger:    logger,
		}),
		applier: overrides.NewApplier(g, components, logger),
		scenes:  scenes,
		scripts: scripts,
		logger:  logger,
		metrics: metrics,
		nowFn:   nowFn,
	}
}

// OpenFromEnv constructs a service whose storage collaborators are selected
// by environment variables (see scenestore.OpenFromEnv and
// scriptstore.OpenFromEnv).
func OpenFromEnv(ctx context.Context, logger *zap.Logger) (*Service, error) {
	scenes, err := scenestore.OpenFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	scripts, err := scriptstore.OpenFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return New(Config{Scenes: scenes, Scripts: scripts, Logger: logger}), nil
}

// Graph exposes the live entity graph.
func (s *Service) Graph() *graph.Graph { return s.graph }

// Components exposes the live component store.
func (s *Service) Components() *graph.ComponentStore { return s.components }

// Materials exposes the material registry.
func (s *Service) Materials() *registry.Materials { return s.materials }

// Prefabs exposes the prefab registry.
func (s *Service) Prefabs() *registry.Prefabs { return s.prefabs }

// CurrentSceneID returns the id of the last loaded or saved scene, empty
// when no scene has been loaded yet.
func (s *Service) CurrentSceneID() string { return s.sceneID }

// SetInputAssets replaces the opaque input-asset payload carried through
// serialization.
func (s *Service) SetInputAssets(raw json.RawMessage) {
	s.inputAssets = append(json.RawMessage(nil), raw...)
}

// SetLockedEntityIDs replaces the locked-entity list carried through
// serialization.
func (s *Service) SetLockedEntityIDs(ids []string) {
	s.lockedEntityIDs = append([]string(nil), ids...)
}

// Serialize snapshots the live graph without touching storage.
func (s *Service) Serialize(meta scene.Metadata, opts serializer.Options) *scene.SerializedScene {
	if opts.Now == nil {
		opts.Now = s.nowFn
	}
	return s.serializer.Serialize(serializer.Input{
		Graph:           s.graph,
		Components:      s.components,
		Materials:       s.materials,
		Prefabs:         s.prefabs,
		InputAssets:     s.inputAssets,
		LockedEntityIDs: s.lockedEntityIDs,
	}, meta, opts)
}

// SaveScene serializes the live graph and persists it under id. Inline
// script payloads with an external path are pushed to the script store
// first; a hash conflict there aborts the save so the caller can decide
// between overwrite and reload.
func (s *Service) SaveScene(ctx context.Context, id string, meta scene.Metadata, opts serializer.Options) (serialized *scene.SerializedScene, err error) {
	defer s.observe(ctx, "save_scene", s.nowFn())(&err)

	if err = s.pushScripts(ctx); err != nil {
		return nil, err
	}
	serialized = s.Serialize(meta, opts)
	if err = s.scenes.Save(ctx, id, serialized); err != nil {
		return nil, err
	}
	s.sceneID = id
	s.logger.Info("scene saved",
		zap.String("sceneId", id),
		zap.Int("entities", len(serialized.Entities)))
	return serialized, nil
}

// pushScripts writes every inline script that has an external counterpart
// to the script store. The expected hash is the one recorded in the live
// descriptor, so content changed out from under us surfaces as a
// scene.ConflictError instead of being overwritten.
func (s *Service) pushScripts(ctx context.Context) error {
	for _, h := range s.graph.Entities() {
		data, ok := s.components.Get(h, codec.ScriptComponentType)
		if !ok {
			continue
		}
		code, _ := data["code"].(string)
		path, _ := data["scriptPath"].(string)
		if code == "" || path == "" {
			continue
		}
		expected := ""
		if ref, ok := codec.ExternalRef(data); ok {
			expected = ref.ContentHash
		}
		content, err := s.scripts.Write(ctx, path, code, expected)
		if err != nil {
			return err
		}
		// Refresh the descriptor so the next save's precondition matches
		// what the store now holds.
		next, ref := s.codec.ExternalizeScript(codec.ScriptComponentType, data, s.nowFn())
		if ref != nil {
			next = codec.ResolveScript(next, code)
			if refMap, ok := next["scriptRef"].(map[string]any); ok {
				refMap["contentHash"] = content.Hash
			}
			s.components.Update(h, codec.ScriptComponentType, next)
		}
	}
	return nil
}

// LoadScene fetches a scene from storage and reconstructs the live graph
// from it. Legacy payloads without persistent ids are migrated first. On
// success the service adopts id as the current scene identity.
func (s *Service) LoadScene(ctx context.Context, id string, opts loader.Options) (result *loader.Result, err error) {
	defer s.observe(ctx, "load_scene", s.nowFn())(&err)

	stored, err := s.scenes.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	loader.MigrateLegacy(stored)
	result, err = s.loader.Load(ctx, loader.Target{
		Graph:      s.graph,
		Components: s.components,
		Materials:  s.materials,
		Prefabs:    s.prefabs,
	}, stored, opts)
	if err != nil {
		return nil, err
	}
	s.sceneID = id
	s.inputAssets = result.InputAssets
	s.lockedEntityIDs = result.LockedEntityIDs
	s.logger.Info("scene loaded",
		zap.String("sceneId", id),
		zap.Int("entities", len(result.Handles)),
		zap.Int("issues", len(result.Issues)))
	return result, nil
}

// DeleteScene removes a stored scene. The live graph is untouched.
func (s *Service) DeleteScene(ctx context.Context, id string) (deleted bool, err error) {
	defer s.observe(ctx, "delete_scene", s.nowFn())(&err)
	return s.scenes.Delete(ctx, id)
}

// ListScenes lists stored scene ids.
func (s *Service) ListScenes(ctx context.Context) (ids []string, err error) {
	defer s.observe(ctx, "list_scenes", s.nowFn())(&err)
	return s.scenes.List(ctx)
}

// Diff computes the overrides that transform the stored base scene into the
// current live graph.
func (s *Service) Diff(ctx context.Context, baseID string) (file *scene.OverridesFile, err error) {
	defer s.observe(ctx, "diff", s.nowFn())(&err)

	base, err := s.scenes.Load(ctx, baseID)
	if err != nil {
		return nil, err
	}
	current := s.Serialize(base.Metadata, serializer.DefaultOptions())
	return overrides.DiffAgainstBase(base, current, overrides.DiffOptions{
		SceneID: baseID,
		Now:     s.nowFn,
	}), nil
}

// ApplyOverrides applies an overrides file onto the live graph after the
// scene-id guard. Per-patch failures are reported in the result, never as
// an error.
func (s *Service) ApplyOverrides(ctx context.Context, o *scene.OverridesFile) (result *overrides.Result, err error) {
	defer s.observe(ctx, "apply_overrides", s.nowFn())(&err)

	if err = loader.CheckOverridesSchema(o); err != nil {
		return nil, err
	}
	if err = s.applier.CanApply(o, s.sceneID); err != nil {
		return nil, err
	}
	result = s.applier.Apply(o)
	s.logger.Info("overrides applied",
		zap.String("sceneId", o.SceneID),
		zap.Int("applied", result.Applied),
		zap.Int("issues", len(result.Issues)))
	return result, nil
}

// ReadScript reads external script content by id.
func (s *Service) ReadScript(ctx context.Context, id string) (scriptstore.Content, error) {
	return s.scripts.Read(ctx, id)
}

// WriteScript writes external script content. A non-empty expectedHash that
// no longer matches the stored content fails with scene.ConflictError.
func (s *Service) WriteScript(ctx context.Context, id, code, expectedHash string) (scriptstore.Content, error) {
	return s.scripts.Write(ctx, id, code, expectedHash)
}

// observe returns the completion hook for one operation's metric sample.
func (s *Service) observe(ctx context.Context, operation string, start time.Time) func(*error) {
	return func(errp *error) {
		success := errp == nil || *errp == nil
		s.metrics.Observe(ctx, operation, success, s.nowFn().Sub(start))
		if !success && !errors.Is(*errp, context.Canceled) {
			s.logger.Warn("operation failed",
				zap.String("operation", operation),
				zap.Error(*errp))
		}
	}
}
