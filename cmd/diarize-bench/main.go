package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/valfrom/diarize-bench/diarization"
	"github.com/valfrom/diarize-bench/internal/audiodecode"
	"github.com/valfrom/diarize-bench/internal/benchmark"
	"github.com/valfrom/diarize-bench/internal/config"
	"github.com/valfrom/diarize-bench/internal/livestream"
	"github.com/valfrom/diarize-bench/internal/modeladapter"
	"github.com/valfrom/diarize-bench/internal/orchestrator"
	"github.com/valfrom/diarize-bench/internal/resultstore"
)

func main() {
	// 1. Load configuration
	diarCfg, benchCfg := config.Load()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC: %v", r)
			panic(r)
		}
	}()

	if benchCfg.RecordingsDir == "" {
		log.Fatal("-recordings-dir is required")
	}

	// 2. Discover recordings: every .mp3 paired with a same-named .xml annotation.
	recordings, err := discoverRecordings(benchCfg.RecordingsDir)
	if err != nil {
		log.Fatalf("failed to discover recordings: %v", err)
	}
	if len(recordings) == 0 {
		log.Fatalf("no recordings found under %s", benchCfg.RecordingsDir)
	}
	log.Printf("discovered %d recording(s) under %s", len(recordings), benchCfg.RecordingsDir)

	// 3. Initialize model adapters
	if diarCfg.SegmentationModelPath == "" || diarCfg.EmbeddingModelPath == "" {
		log.Fatal("-segmentation-model and -embedding-model are required")
	}

	modelLoadStart := time.Now()

	segModel, err := modeladapter.NewOnnxSegmentationModel(modeladapter.DefaultSegmentationConfig(diarCfg.SegmentationModelPath))
	if err != nil {
		log.Fatalf("failed to load segmentation model: %v", err)
	}
	defer segModel.Close()

	embModel, err := modeladapter.NewOnnxEmbeddingModel(modeladapter.DefaultEmbeddingConfig(diarCfg.EmbeddingModelPath))
	if err != nil {
		log.Fatalf("failed to load embedding model: %v", err)
	}
	defer embModel.Close()

	modelLoadElapsed := time.Since(modelLoadStart).Seconds()

	decoder := audiodecode.NewMP3Decoder()

	// 4. Build the pipeline config shared by every recording's own pipeline
	// instance (each recording gets its own speaker registry).
	pipelineCfg := diarization.DefaultPipelineConfig()
	pipelineCfg.ChunkDurationSeconds = diarCfg.ChunkDurationSeconds
	pipelineCfg.OverlapSeconds = diarCfg.OverlapSeconds
	pipelineCfg.SampleRate = diarCfg.SampleRate
	pipelineCfg.Segmentation.ActivityThreshold = diarCfg.ActivityThreshold
	pipelineCfg.Segmentation.MinDurationOn = diarCfg.MinDurationOn
	pipelineCfg.Segmentation.MinDurationOff = diarCfg.MinDurationOff
	pipelineCfg.Registry.AssignmentThreshold = diarCfg.AssignmentThreshold
	pipelineCfg.Registry.UpdateThreshold = diarCfg.UpdateThreshold
	pipelineCfg.Registry.UpdateWeight = diarCfg.UpdateWeight
	pipelineCfg.Registry.MaxSpeakers = diarCfg.MaxSpeakers
	pipelineCfg.Embedder.MinRegionDuration = diarCfg.MinRegionDuration
	pipelineCfg.InferenceTimeout = msToDuration(diarCfg.InferenceTimeoutMs)

	driver := &benchmark.Driver{
		AudioDecoder:     decoder,
		SegModel:         segModel,
		EmbModel:         embModel,
		PipelineConfig:   pipelineCfg,
		Streaming:        benchCfg.Streaming,
		ModelLoadSeconds: modelLoadElapsed,
	}

	// 4b. Optionally serve a live segment feed over websocket.
	if benchCfg.LiveAddr != "" {
		hub := livestream.NewHub()
		driver.Live = hub
		if benchCfg.ReferenceTranscriptPath != "" {
			transcript, err := os.ReadFile(benchCfg.ReferenceTranscriptPath)
			if err != nil {
				log.Fatalf("failed to read reference transcript: %v", err)
			}
			hub.SetReferenceTranscript(string(transcript))
		}
		go func() {
			log.Printf("live segment stream listening on %s", benchCfg.LiveAddr)
			if err := http.ListenAndServe(benchCfg.LiveAddr, hub); err != nil {
				log.Printf("live segment stream stopped: %v", err)
			}
		}()
	}

	// 5. Run the benchmark across every recording, bounded concurrency.
	orch := orchestrator.New(driver, 4)
	results := orch.Run(context.Background(), recordings)

	agg := benchmark.Aggregate(results, benchmark.Thresholds{
		DERMax: benchCfg.DERMax,
		JERMax: benchCfg.JERMax,
		RTFMax: benchCfg.RTFMax,
	})

	// 6. Persist and report
	if err := resultstore.Save(benchCfg.ResultsPath, agg); err != nil {
		log.Fatalf("failed to save results: %v", err)
	}

	log.Printf("benchmark complete: meanDER=%.2f meanJER=%.2f meanRTFx=%.2f passed=%v",
		agg.MeanDER, agg.MeanJER, agg.MeanRTFx, agg.Passed)

	if !agg.Passed {
		for _, f := range agg.Failures {
			log.Printf("threshold failure: %s", f)
		}
		os.Exit(1)
	}
}

// discoverRecordings walks dir for .mp3 files and pairs each with a
// same-basename .xml annotation in the same directory. A recording missing
// its annotation is skipped with a warning.
func discoverRecordings(dir string) ([]benchmark.Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	var recordings []benchmark.Recording
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		audioPath := filepath.Join(dir, entry.Name())
		annotationPath := filepath.Join(dir, base+".xml")

		if _, err := os.Stat(annotationPath); err != nil {
			log.Printf("skipping %s: no matching annotation at %s", entry.Name(), annotationPath)
			continue
		}

		recordings = append(recordings, benchmark.Recording{
			ID:             base,
			AudioPath:      audioPath,
			AnnotationPath: annotationPath,
		})
	}

	sort.Slice(recordings, func(i, j int) bool { return recordings[i].ID < recordings[j].ID })
	return recordings, nil
}

func msToDuration(ms int) (d time.Duration) {
	return time.Duration(ms) * time.Millisecond
}
