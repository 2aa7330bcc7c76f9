// Package clientcli provides a client library for photozip servers.
//
// It downloads streamed directory archives and queries the archive history
// recorded by servers that have history enabled.
//
// # Basic Usage
//
// Create a client and download an archive:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, _, err := client.Download(ctx, clientcli.DownloadOptions{
//		Token:     "wedding-2024",
//		LocalPath: "./wedding.zip",
//	})
//
// A LocalPath of "-" returns the response body instead of writing a file,
// so the caller can copy it to stdout.
//
// # Output Formatting
//
// Use formatters for table, JSON or YAML output:
//
//	formatter, err := clientcli.NewFormatter("json", false)
//	formatter.FormatHistory(os.Stdout, result)
package clientcli
