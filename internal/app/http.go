package app

import (
	"context"
	"net/http"

	"handyman-auth/internal/auth/backend"
	"handyman-auth/internal/auth/controller"
	"handyman-auth/internal/auth/gateway"
	"handyman-auth/internal/auth/handler"
	"handyman-auth/internal/auth/provider"
	"handyman-auth/internal/auth/provider/facebook"
	"handyman-auth/internal/auth/provider/google"
	"handyman-auth/internal/auth/provider/keycloak"
	"handyman-auth/internal/config"
	"handyman-auth/internal/metrics"
	"handyman-auth/internal/middleware"
	"handyman-auth/internal/navigation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type wiring struct {
	router         *gin.Engine
	controller     *controller.Controller
	infra          *Infra
	stopNavigation func()
}

// followState keeps nav in step with the controller until ctx ends or the
// returned stop func is called. stop waits for the follower to exit.
func followState(ctx context.Context, nav *navigation.Navigator, ctl *controller.Controller) func() {
	states, unsubscribe := ctl.Subscribe()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		nav.Follow(ctx, states)
	}()

	return func() {
		cancel()
		unsubscribe()
		<-done
	}
}

// providers builds the verifiers and SDK adapters that are configured.
// Unconfigured sign-in methods stay nil and fail cleanly at the gateway.
type providers struct {
	verifiers []provider.TokenVerifier
	broker    provider.CredentialBroker
	social    *facebook.LoginManager
}

func setupProviders(ctx context.Context, cfg config.Config) (*providers, error) {
	p := &providers{}

	switch cfg.FederatedVerifier {
	case "keycloak":
		v, err := keycloak.New(ctx, cfg.KeycloakIssuer, cfg.KeycloakClientID)
		if err != nil {
			return nil, err
		}
		p.verifiers = append(p.verifiers, v)
	default:
		if cfg.GoogleEnabled() {
			v, err := google.NewVerifier(ctx, cfg.GoogleClientID)
			if err != nil {
				return nil, err
			}
			p.verifiers = append(p.verifiers, v)
		}
	}

	if cfg.GoogleEnabled() {
		p.broker = google.NewBroker(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleAuthorizedAccounts)
	}

	if cfg.FacebookEnabled() {
		m, err := facebook.NewLoginManager(cfg.FacebookAppID, cfg.FacebookAppSecret, cfg.FacebookRedirectURL)
		if err != nil {
			return nil, err
		}
		p.social = m
		p.verifiers = append(p.verifiers, facebook.NewVerifier(cfg.FacebookGraphURL))
	}

	return p, nil
}

func setupHTTP(ctx context.Context, cfg config.Config) (*wiring, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p, err := setupProviders(ctx, cfg)
	if err != nil {
		infra.Close()
		return nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	authBackend := backend.New(infra.DB, provider.NewRegistry(p.verifiers...), infra.Sessions, backend.Config{
		FederatedProvider: cfg.FederatedVerifier,
		SocialProvider:    "facebook",
		SessionTTL:        cfg.SessionTTL,
	})

	serverClientID := cfg.GoogleClientID
	if cfg.FederatedVerifier == "keycloak" {
		serverClientID = cfg.KeycloakClientID
	}

	var social provider.SocialLogin
	var redirects handler.RedirectReceiver
	if p.social != nil {
		social = p.social
		redirects = p.social
	}

	gw := gateway.New(p.broker, social, authBackend, gateway.WithServerClientID(serverClientID))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics, err := metrics.New(registry)
	if err != nil {
		infra.Close()
		return nil, err
	}

	ctl := controller.New(gw,
		controller.WithRecorder(authMetrics),
		controller.WithContext(ctx),
	)

	nav := navigation.New(ctl.State().SignedIn())
	stopNavigation := followState(ctx, nav, ctl)

	authHandler := handler.NewHandler(ctl, nav, redirects)
	authMiddleware := middleware.NewAuthMiddleware(authBackend)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", func(c *gin.Context) {
		st := ctl.State()
		resp := gin.H{"user_id": c.GetString("userID")}
		if st.Identity != nil {
			resp["display_name"] = st.Identity.DisplayName
			resp["email"] = st.Identity.Email
			resp["avatar_url"] = st.Identity.AvatarURL
		}
		c.JSON(http.StatusOK, resp)
	})

	return &wiring{
		router:         router,
		controller:     ctl,
		infra:          infra,
		stopNavigation: stopNavigation,
	}, nil
}
