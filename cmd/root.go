package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/pahedl/internal/output"
	"github.com/tanq16/pahedl/internal/scheduler"
	"github.com/tanq16/pahedl/internal/utils"
)

var (
	outputPath    string
	connections   int
	numWorkers    int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	cookieHeader  string
	headers       []string
	urlListFile   string
	debug         bool
)

var PahedlVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "pahedl [MIRROR_PAGE_URL]",
	Short:   "pahedl resolves obfuscated video mirror links and downloads them fast",
	Version: PahedlVersion,
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if len(args) == 0 && urlListFile == "" {
			output.PrintError("No URL or URL list provided")
			os.Exit(1)
		}
		if urlListFile != "" && len(args) > 0 {
			output.PrintError("Cannot specify url argument and --urllist together, choose one")
			os.Exit(1)
		}
		httpClientConfig := buildHTTPClientConfig()

		var jobs []scheduler.Job
		if len(args) > 0 {
			url := args[0]
			if _, err := u.Parse(url); err != nil {
				output.PrintError("Invalid URL format")
				os.Exit(1)
			}
			job := scheduler.NewJob(url, outputPath, connections)
			job.CookieHeader = cookieHeader
			job.HTTPClientConfig = httpClientConfig
			jobs = append(jobs, job)
		} else {
			entries, err := utils.ReadDownloadList(urlListFile)
			if err != nil {
				output.PrintError("Failed to read URL list file")
				os.Exit(1)
			}
			connectionsPerLink := connections
			maxConnections := 64
			if numWorkers*connectionsPerLink > maxConnections {
				connectionsPerLink = max(maxConnections/numWorkers, 1)
				output.PrintWarning(fmt.Sprintf("Capping connections at %d per link to stay under %d total", connectionsPerLink, maxConnections))
			}
			for _, entry := range entries {
				job := scheduler.NewJob(entry.URL, entry.OutputPath, connectionsPerLink)
				job.CookieHeader = cookieHeader
				job.HTTPClientConfig = httpClientConfig
				jobs = append(jobs, job)
			}
		}
		if err := scheduler.Run(context.Background(), jobs, numWorkers); err != nil {
			fmt.Println()
			output.PrintError("Encountered failed operation(s)")
			os.Exit(1)
		}
	},
}

func buildHTTPClientConfig() utils.HTTPClientConfig {
	if userAgent == "randomize" {
		userAgent = utils.GetRandomUserAgent()
	}
	// Check if proxy URL contains auth
	parsedProxy, err := u.Parse(proxyURL)
	if err == nil && parsedProxy.User != nil && proxyUsername == "" {
		proxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPassword = password
		}
		parsedProxy.User = nil
		proxyURL = parsedProxy.String()
	}
	return utils.HTTPClientConfig{
		Timeout:       timeout,
		KATimeout:     kaTimeout,
		ProxyURL:      proxyURL,
		ProxyUsername: proxyUsername,
		ProxyPassword: proxyPassword,
		UserAgent:     userAgent,
		Headers:       utils.ParseHeaderArgs(headers),
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&connections, "connections", "c", 8, "Number of connections per download")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.PersistentFlags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "", "User agent ('randomize' picks a desktop browser UA)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&cookieHeader, "cookie", "", "Browser-exported cookie header for challenge-protected hosts")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (inferred from the resolved link if not provided)")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to YAML file containing mirror links and output paths")
	rootCmd.Flags().IntVarP(&numWorkers, "workers", "w", 1, "Number of links to download in parallel")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newGetCmd())
}
