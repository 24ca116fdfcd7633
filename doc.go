// Package sediment is the composition root for the sediment note pipeline.
//
// Sediment watches a directory of freshly clipped Markdown notes. Each note's
// front matter names where it came from (source) and when it was published
// (published). The note body is rewritten by a generative model using a prompt
// template, and the result is filed into the vault as
//
//	<output>/<domain>/<YYYYMMDD>/<filename>
//
// after which the raw note is removed.
//
// Notes that lack either field are left untouched. If the prompt template
// cannot be read the note is left in place; if the model call fails the note is
// still filed, with a fixed fallback body.
//
// Usage:
//
//	gen, err := llm.NewGenerator(ctx, llm.ProviderConfig{APIKey: key})
//	p, err := sediment.New("./raw", "./vault/source",
//		sediment.WithGenerator(gen),
//		sediment.WithLogger(logger),
//	)
//	err = p.Run(ctx)
package sediment
