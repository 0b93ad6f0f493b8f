package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/adrg/xdg"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/castlegate/castlegate-backend/internal/controller"
	"github.com/castlegate/castlegate-backend/internal/middleware"
	"github.com/castlegate/castlegate-backend/internal/service"
	"github.com/castlegate/castlegate-backend/internal/store"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	root := rootCommand()
	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

type serverOptions struct {
	addr      string
	dataDir   string
	origin    string
	engineCmd string
	movetime  time.Duration
	clock     time.Duration
}

func rootCommand() *cobra.Command {
	var opts serverOptions

	root := &cobra.Command{
		Use:   "castlegate",
		Short: "Chess backend with matchmaking, persistence and engine hints",
		Args:  cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		Long: heredoc.Doc(`castlegate serves a chess backend over HTTP and WebSocket.

			Games run fully on the server: move legality, check and mate
			detection, clocks, draws and promotions are all arbitrated
			here, and every completed ply is pushed to the players'
			sockets. Players pair up through a matchmaking queue or by
			sharing a game ID.

			Games and user accounts persist in a local BadgerDB under the
			data directory. Move suggestions come from any UCI engine
			installed next to the server; point --engine at the binary.`),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flag("trace").Changed {
				logrus.SetLevel(logrus.TraceLevel)
			}
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts)
		},
	}

	root.PersistentFlags().BoolP("trace", "t", false, "Show Trace Information")

	root.Flags().StringVar(&opts.addr, "addr", ":3000", "listen address")
	root.Flags().StringVar(&opts.dataDir, "data-dir", filepath.Join(xdg.DataHome, "castlegate"), "directory for the game and user database")
	root.Flags().StringVar(&opts.origin, "origin", "http://localhost:5173", "allowed browser origin")
	root.Flags().StringVar(&opts.engineCmd, "engine", "stockfish", "UCI engine command for move suggestions")
	root.Flags().DurationVar(&opts.movetime, "movetime", 5*time.Second, "engine thinking time per suggestion")
	root.Flags().DurationVar(&opts.clock, "clock", 10*time.Minute, "initial time per side")

	return root
}

func serve(opts serverOptions) error {
	st, err := store.Open(filepath.Join(opts.dataDir, "db"))
	if err != nil {
		return err
	}
	defer st.Close()

	// Initialize services
	gameManager := service.NewGameManager(opts.clock)
	userService := service.NewUserService(st)
	gameService := service.NewGameService(gameManager, st, userService, opts.engineCmd, opts.movetime)
	defer gameService.Close()

	// Initialize controllers
	gameController := controller.NewGameController(gameService)
	userController := controller.NewUserController(userService)
	wsController := controller.NewWebSocketController(gameService)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.origin,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(func(c *fiber.Ctx) error {
		logrus.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Trace("request")
		return c.Next()
	})

	// Set up WebSocket routes
	app.Use("/ws/*", middleware.RequirePlayerID())
	app.Get("/ws/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         []string{opts.origin},
	}))

	// Set up REST routes
	api := app.Group("/api", middleware.RequirePlayerID())

	// Game routes; static paths go first so they are not swallowed by
	// the :gameId parameter
	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gameController.LeaveMatchmaking)
	gameRoutes.Get("/matchmaking/wait", gameController.WaitForMatch)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/join/:gameId", gameController.JoinGame)
	gameRoutes.Get("/saved", gameController.SavedGames)
	gameRoutes.Post("/load/:gameId", gameController.LoadGame)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/moves", gameController.LegalMoves)
	gameRoutes.Post("/:gameId/move", gameController.MakeMove)
	gameRoutes.Post("/:gameId/promote", gameController.Promote)
	gameRoutes.Post("/:gameId/resign", gameController.Resign)
	gameRoutes.Post("/:gameId/draw/offer", gameController.OfferDraw)
	gameRoutes.Post("/:gameId/draw/answer", gameController.AnswerDraw)
	gameRoutes.Post("/:gameId/save", gameController.SaveGame)
	gameRoutes.Get("/:gameId/pgn", gameController.PGN)
	gameRoutes.Get("/:gameId/suggest", gameController.SuggestMove)

	// User routes
	userRoutes := api.Group("/users")
	userRoutes.Post("/register", userController.Register)
	userRoutes.Post("/login", userController.Login)
	userRoutes.Get("/:name/stats", userController.Stats)

	logrus.WithField("addr", opts.addr).Info("listening")
	return app.Listen(opts.addr)
}
