// Package paperless provides a typed client for the Paperless-ngx REST API.
//
// # Architecture
//
// Every request goes through one Transport, which injects the token,
// serializes query parameters, follows pagination and turns every failure
// into an *APIError. The resource services (Documents, Tags, Correspondents,
// DocumentTypes, Tasks, Users, Auth) bind fixed URL templates to the
// transport verbs and are grouped behind Client.
//
// # Usage
//
//	client, err := paperless.NewClient(
//		"https://paperless.example.com",
//		paperless.WithToken("your-token"),
//		paperless.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	for doc, err := range client.Documents.Iterate(ctx, &paperless.DocumentListQuery{Query: "invoice"}) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(doc.ID, doc.Title)
//	}
//
// # Query parameters
//
// Slice values are sent as one comma-joined value (id__in=1,2,3) and nil
// values are left out. Query structs use `url` tags.
//
// # Error Handling
//
// Non-2xx responses and transport failures are returned as *APIError:
//
//	var apiErr *paperless.APIError
//	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
//		// Handle missing document
//	}
//
// URL templates that cannot be filled fail with *PathError before any
// request is sent.
package paperless
