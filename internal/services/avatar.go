package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/types"
)

// AvatarService renders a simple initials avatar for new users and stores it
// under the local media directory. It is optional: when no font is
// configured, main wires a nil service and registration skips avatars.
type AvatarService interface {
	CreateUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
	log      *logger.Logger
	mediaDir string
	fontFace font.Face

	palette []color.NRGBA
}

const (
	avatarRenderSize = 512
	avatarFinalSize  = 256
)

func NewAvatarService(log *logger.Logger, mediaDir, fontPath string) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("No avatar font configured")
	}
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("Could not read avatar font: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("Could not parse avatar font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: 206})

	if err := os.MkdirAll(filepath.Join(mediaDir, "avatars"), 0o755); err != nil {
		return nil, fmt.Errorf("Could not create avatar media dir: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		mediaDir: mediaDir,
		fontFace: face,
		palette: []color.NRGBA{
			{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
			{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
			{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
			{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
			{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
			{R: 0xEC, G: 0x48, B: 0x99, A: 0xFF},
		},
	}, nil
}

func (s *avatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
	if user == nil {
		return fmt.Errorf("No user given")
	}

	initials := userInitials(user)
	bg := s.palette[colorIndex(user.ID.String(), len(s.palette))]

	dc := gg.NewContext(avatarRenderSize, avatarRenderSize)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetFontFace(s.fontFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(initials, avatarRenderSize/2, avatarRenderSize/2, 0.5, 0.5)

	scaled := image.NewRGBA(image.Rect(0, 0, avatarFinalSize, avatarFinalSize))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), dc.Image(), dc.Image().Bounds(), draw.Over, nil)

	key := filepath.Join("avatars", user.ID.String()+".png")
	path := filepath.Join(s.mediaDir, key)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Could not create avatar file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, scaled); err != nil {
		return fmt.Errorf("Could not encode avatar png: %w", err)
	}

	user.AvatarBucketKey = key
	user.AvatarURL = "/media/" + filepath.ToSlash(key)
	s.log.Debug("Rendered user avatar", "user_id", user.ID, "path", path)
	return nil
}

func userInitials(user *types.User) string {
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		name = user.Email
	}
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[1]))
	}
	if len(name) >= 2 {
		return strings.ToUpper(name[:2])
	}
	if len(name) == 1 {
		return strings.ToUpper(name)
	}
	return "?"
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func colorIndex(seed string, buckets int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return int(h.Sum32() % uint32(buckets))
}
