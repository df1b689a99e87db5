package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web"
	"github.com/inkpost/blog/web/service"

	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.LevelFor(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	server := web.NewServer(cfg)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			cfg, err := config.Load()
			if err != nil {
				log.Println(err)
				return
			}
			server = web.NewServer(cfg)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func showSetting() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("current settings as follows:")
	fmt.Println("listen:", cfg.Listen)
	fmt.Println("port:", cfg.Port)
	fmt.Println("database:", cfg.Database.Type)
	if cfg.RedisAddr == "" {
		fmt.Println("redis: embedded")
	} else {
		fmt.Println("redis:", cfg.RedisAddr)
	}
	fmt.Println("session max age:", cfg.SessionMaxAge)
	fmt.Println("session idle timeout:", cfg.SessionIdle)
	fmt.Println("secure cookies:", cfg.CookieSecure)
	fmt.Println("secret key set:", cfg.Secret != "")
	fmt.Println("login attempts per minute:", cfg.LoginAttemptsPerMinute)
	fmt.Println("audit retention days:", cfg.AuditRetentionDays)

	db, err := database.Open(cfg.Database)
	if err != nil {
		fmt.Println("open database failed:", err)
		return
	}
	defer database.Close(db)
	admins, err := service.NewUserService(db).ListAdmins()
	if err != nil {
		fmt.Println("list admins failed:", err)
		return
	}
	for _, a := range admins {
		fmt.Println("admin:", a.Email)
	}
}

func setRole(email string, role model.Role) {
	if email == "" {
		fmt.Println("--email is required")
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := service.NewUserService(db).SetRole(email, role); err != nil {
		fmt.Println("set role failed:", err)
		return
	}
	fmt.Printf("%s is now %s\n", email, role)
}

func main() {
	config.LoadEnvFile()

	var rootCmd = &cobra.Command{
		Use: config.GetName(),
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Run: func(cmd *cobra.Command, args []string) {
			showSetting()
		},
	}

	settingCmd.AddCommand(showCmd)

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage user roles",
	}

	var promoteCmd = &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			setRole(email, model.RoleAdmin)
		},
	}

	var demoteCmd = &cobra.Command{
		Use:   "demote",
		Short: "Revoke the admin role",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			setRole(email, model.RoleUser)
		},
	}

	promoteCmd.Flags().String("email", "", "account email")
	demoteCmd.Flags().String("email", "", "account email")

	userCmd.AddCommand(promoteCmd, demoteCmd)

	rootCmd.AddCommand(runCmd, versionCmd, settingCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
