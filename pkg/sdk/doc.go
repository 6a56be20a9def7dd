// Package docqa embeds the document question-answering pipeline in a Go program.
//
// A Client holds one document at a time. Load segments, embeds and indexes it
// in memory; Ask retrieves the closest segments and has a chat model answer
// from them.
//
//	client, _ := docqa.New(ctx,
//	    docqa.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "", "text-embedding-3-small", "gpt-4o-mini"),
//	    docqa.WithChunking(500, 50),
//	)
//	defer client.Close()
//
//	_, _ = client.Load(ctx, "handbook.md", text)
//	ans, _ := client.Ask(ctx, "What is the refund policy?", docqa.WithTopK(3))
//	fmt.Println(ans.Text)
//
// Any embedding or chat backend can be plugged in through WithEmbedder and
// WithCompleter. WithRedisCache keeps embeddings across clients.
package docqa
