// Package clientcli backs the volstore command-line tool.
//
// It combines the auth, provision and agent clients behind one Client that
// authenticates lazily, resolves volumes by id or by name and streams files
// between the local disk and a volume.
//
// # Basic Usage
//
//	cfg := &clientcli.Config{
//		AuthURL:   "http://localhost:8880/authenticate",
//		MasterURL: "http://localhost:8880",
//		Username:  "alice",
//		Password:  "secret",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	vol, err := client.Allocate(ctx, clientcli.AllocateOptions{Name: "scratch"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		Volume:     vol.ID,
//		LocalPath:  "./run1",
//		RemotePath: "data/run1",
//		Recursive:  true,
//	})
//
// # Profile Configuration
//
// Profiles in ~/.volstore/config.yaml hold the endpoints and credentials of
// several services:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("cluster")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.MergeConfig(clientcli.ConfigFromProfile(profile), clientcli.ConfigFromEnv())
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
