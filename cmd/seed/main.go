// Command seed provisions an admin account, the museum settings, three
// sample exhibits and a demo visitor. Running it again changes nothing.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/config"
	"github.com/qrmuseum/museum-api/internal/database"
	"github.com/qrmuseum/museum-api/internal/logger"
	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/qrcode"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

type sample struct {
	title, artist, info, history string
}

var samples = []sample{
	{
		title:   "El Grito",
		artist:  "Edvard Munch",
		info:    "Uno de los cuadros más famosos de la historia del arte. Representa la angustia existencial del ser humano moderno.",
		history: "Pintado en 1893, es una obra maestra del expresionismo. Munch capturó la ansiedad y el miedo universal.",
	},
	{
		title:   "La Persistencia de la Memoria",
		artist:  "Salvador Dalí",
		info:    "Obra maestra del surrealismo que desafía la percepción convencional del tiempo con sus famosos relojes derretidos.",
		history: "Creada en 1931, esta obra representa los sueños y el inconsciente según la teoría freudiana del propio Dalí.",
	},
	{
		title:   "Guernica",
		artist:  "Pablo Picasso",
		info:    "Pintura mural de gran formato que expresa el horror de la guerra. Uno de los cuadros más poderosos del siglo XX.",
		history: "Creado en 1937 en respuesta al bombardeo de Guernica durante la Guerra Civil Española.",
	},
}

type seeder struct {
	cfg      config.Config
	users    *repository.UserRepo
	visitors *repository.VisitorRepo
	exhibits *repository.ExhibitRepo
	contents *repository.ContentRepo
	museum   *repository.MuseumRepo
	store    storage.Store
	log      *zap.Logger
}

func main() {
	cfg := config.Load()
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	db, err := database.Connect(cfg)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(ctx, db, cfg.DBDriver); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	store, err := storage.New(ctx, config.LoadStorageConfig())
	if err != nil {
		zl.Fatal("storage", zap.Error(err))
	}

	s := &seeder{
		cfg:      cfg,
		users:    repository.NewUserRepo(db),
		visitors: repository.NewVisitorRepo(db),
		exhibits: repository.NewExhibitRepo(db),
		contents: repository.NewContentRepo(db),
		museum:   repository.NewMuseumRepo(db),
		store:    store,
		log:      zl,
	}
	if err := s.run(ctx,
		envOr("SEED_ADMIN_PASSWORD", "admin123"),
		envOr("SEED_DEMO_PASSWORD", "demo123"),
	); err != nil {
		zl.Fatal("seed failed", zap.Error(err))
	}
	zl.Info("seed complete")
}

func (s *seeder) run(ctx context.Context, adminPass, demoPass string) error {
	if _, err := s.ensureUser(ctx, repository.NewUser{
		Username: "admin", Email: "admin@museo.local", FirstName: "Admin",
		Password: adminPass, Role: model.RoleAdmin,
	}); err != nil {
		return err
	}
	if err := s.ensureMuseum(ctx); err != nil {
		return err
	}
	if err := s.ensureExhibits(ctx); err != nil {
		return err
	}
	demo, err := s.ensureUser(ctx, repository.NewUser{
		Username: "demo", Email: "demo@museo.local", FirstName: "Usuario Demo",
		Password: demoPass, Role: model.RoleVisitor,
	})
	if err != nil {
		return err
	}
	v, err := s.visitors.Ensure(ctx, demo)
	if err != nil {
		return err
	}
	if v.Nickname == "" {
		return s.visitors.UpdateNickname(ctx, demo, "Explorador")
	}
	return nil
}

// ensureUser creates in unless its username exists and returns the id.
func (s *seeder) ensureUser(ctx context.Context, in repository.NewUser) (uint64, error) {
	u, err := s.users.GetByUsername(ctx, in.Username)
	if err == nil {
		s.log.Info("user exists", zap.String("username", in.Username))
		return u.ID, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return 0, err
	}
	id, err := s.users.Create(ctx, in, s.cfg.BcryptCost)
	if err != nil {
		return 0, err
	}
	s.log.Info("user created", zap.String("username", in.Username), zap.String("role", in.Role))
	return id, nil
}

func (s *seeder) ensureMuseum(ctx context.Context) error {
	m, err := s.museum.Current(ctx)
	if err != nil {
		return err
	}
	if m.Name != repository.DefaultMuseumName || m.Description != "" {
		return nil
	}
	_, err = s.museum.Update(ctx, repository.MuseumFields{
		Name:        "Museo de Arte Moderno",
		Description: "Descubre las obras maestras del arte moderno a través de una aventura interactiva con códigos QR.",
		Location:    "Santiago, Chile",
	})
	return err
}

// ensureExhibits adds the samples to an empty collection only.
func (s *seeder) ensureExhibits(ctx context.Context) error {
	n, err := s.exhibits.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for i, sm := range samples {
		id := uuid.NewString()
		e, err := s.exhibits.Create(ctx, id, qrcode.Locator(id), repository.ExhibitFields{
			Title:          sm.title,
			Description:    sm.artist,
			SequenceNumber: i + 1,
			IsActive:       true,
		})
		if err != nil {
			return err
		}
		if _, _, err := s.contents.Upsert(ctx, e.ID, repository.ContentFields{
			ContentType: model.ContentText,
			Title:       sm.title,
			Body:        sm.info,
			History:     sm.history,
			Science:     "Técnica: Óleo sobre lienzo",
			Trivia:      "Obra destacada de la colección permanente",
			IsActive:    true,
			ShowImage:   true, ShowVideo: true, ShowAudio: true, ShowFile: true,
			ShowHistory: true, ShowScience: true, ShowTrivia: true,
		}); err != nil {
			return err
		}
		png, err := qrcode.Render(qrcode.ScanContent(s.cfg.PublicBaseURL, e.UUID))
		if err != nil {
			return err
		}
		key := qrcode.ImageKey(e.UUID)
		if err := s.store.Put(ctx, key, "image/png", png); err != nil {
			return err
		}
		if err := s.exhibits.SetQRImageKey(ctx, e.ID, key); err != nil {
			return err
		}
		s.log.Info("exhibit created", zap.String("title", sm.title), zap.String("uuid", e.UUID))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
