// Package httpserver exposes a small JSON gateway for shipping events:
// ingest, capture through the pipeline, queue inspection and manual drains.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	q, _ := rt.OpenQueue()
//	shp, _ := shipper.New(q, deliverer, shipper.Options{})
//	s := httpserver.New(rt, shp, logger)
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
