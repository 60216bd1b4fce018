package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Skotchmaster/marketplace/internal/models"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"gorm.io/gorm"
)

var ErrInactive = errors.New("tenant inactive")

type Registry struct {
	Default    *gorm.DB
	Platform   *gorm.DB
	Dir        string
	BaseDomain string

	mu  sync.Mutex
	dbs map[string]*gorm.DB
}

func NewRegistry(def, platform *gorm.DB, dir, baseDomain string) *Registry {
	return &Registry{
		Default:    def,
		Platform:   platform,
		Dir:        dir,
		BaseDomain: strings.ToLower(strings.TrimPrefix(baseDomain, ".")),
		dbs:        make(map[string]*gorm.DB),
	}
}

// MigrateStore brings a store database to the current schema.
func MigrateStore(db *gorm.DB) error {
	return db.AutoMigrate(models.TenantModels()...)
}

func MigratePlatform(db *gorm.DB) error {
	return db.AutoMigrate(models.PlatformModels()...)
}

// Resolve maps a request host to a store database. Hosts that match no
// client land on the default database.
func (r *Registry) Resolve(ctx context.Context, host string) (*gorm.DB, *models.Client, error) {
	host = NormalizeHost(host)
	if host == "" || r.Platform == nil {
		return r.Default, nil, nil
	}

	client, err := r.lookup(ctx, host)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return r.Default, nil, nil
	}
	if client.Status != models.ClientActive {
		return nil, client, fmt.Errorf("%w: %s is %s", ErrInactive, client.ClientID, client.Status)
	}

	db, err := r.Open(ctx, client.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return db, client, nil
}

func (r *Registry) lookup(ctx context.Context, host string) (*models.Client, error) {
	q := r.Platform.WithContext(ctx)

	var client models.Client
	err := q.Where("custom_domain = ?", host).First(&client).Error
	if err == nil {
		return &client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	label := r.subdomainLabel(host)
	if label == "" {
		return nil, nil
	}
	err = q.Where("subdomain = ?", label).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// subdomainLabel extracts "agro" from agro.<base domain>. A bare label such
// as the X-Tenant-Domain value "agro" is returned as is.
func (r *Registry) subdomainLabel(host string) string {
	if r.BaseDomain != "" && strings.HasSuffix(host, "."+r.BaseDomain) {
		label := strings.TrimSuffix(host, "."+r.BaseDomain)
		if strings.Contains(label, ".") {
			return ""
		}
		return label
	}
	if !strings.Contains(host, ".") {
		return host
	}
	return ""
}

// Open returns the cached store database of a tenant, creating and migrating
// its file on first use.
func (r *Registry) Open(ctx context.Context, clientID string) (*gorm.DB, error) {
	if clientID == "" || strings.ContainsAny(clientID, `/\.`) {
		return nil, fmt.Errorf("invalid client id %q", clientID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.dbs[clientID]; ok {
		return db, nil
	}

	db, err := pkgdb.OpenSQLite(ctx, r.Path(clientID))
	if err != nil {
		return nil, err
	}
	if err := MigrateStore(db); err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("migrate tenant %s: %w", clientID, err)
	}

	logging.FromContext(ctx).Info("tenant_db_opened", "tenant", clientID)
	r.dbs[clientID] = db
	return db, nil
}

func (r *Registry) Path(clientID string) string {
	return filepath.Join(r.Dir, clientID+".db")
}

// Forget closes and drops the cached handle of a deleted tenant.
func (r *Registry) Forget(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.dbs[clientID]; ok {
		_ = pkgdb.Close(db)
		delete(r.dbs, clientID)
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, db := range r.dbs {
		_ = pkgdb.Close(db)
		delete(r.dbs, id)
	}
}

func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
