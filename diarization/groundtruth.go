package diarization

import (
	"encoding/xml"
	"io"
	"sort"
	"strconv"
)

// ReferenceAnnotation is one recording's ground-truth speaker turns, with
// local speaker codes already resolved to recording-global participant ids.
type ReferenceAnnotation struct {
	RecordingID string
	SpeakerMap  map[string]string // local code -> participant id
	Turns       []TimedSpeakerSegment
}

type rawTurn struct {
	code  string
	start float64
	end   float64
}

// LoadGroundTruth streams a reference-annotation document of the form
//
//	<recording id="...">
//	  <speakers>
//	    <speaker code="A" participant="..."/>
//	  </speakers>
//	  <turns>
//	    <turn speaker="A" start="0.42" end="3.15"/>
//	  </turns>
//	</recording>
//
// token by token, resolving local speaker codes to participant ids and
// dropping turns under half a second, matching the minimum duration the
// rest of the pipeline treats as embeddable.
func LoadGroundTruth(r io.Reader) (ReferenceAnnotation, error) {
	dec := xml.NewDecoder(r)

	var recordingID string
	speakerMap := make(map[string]string)
	var turns []rawTurn

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ReferenceAnnotation{}, newError(KindAnnotationMissing, "malformed reference annotation", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "recording":
			recordingID = attr(start, "id")
		case "speaker":
			code := attr(start, "code")
			participant := attr(start, "participant")
			if code != "" {
				speakerMap[code] = participant
			}
		case "turn":
			code := attr(start, "speaker")
			startSec, _ := strconv.ParseFloat(attr(start, "start"), 64)
			endSec, _ := strconv.ParseFloat(attr(start, "end"), 64)
			turns = append(turns, rawTurn{code: code, start: startSec, end: endSec})
		}
	}

	if recordingID == "" && len(speakerMap) == 0 && len(turns) == 0 {
		return ReferenceAnnotation{}, newError(KindAnnotationMissing, "reference annotation contained no recording element", nil)
	}

	const minTurnDuration = 0.5
	var segments []TimedSpeakerSegment
	for _, t := range turns {
		if t.end-t.start < minTurnDuration {
			continue
		}
		participant, ok := speakerMap[t.code]
		if !ok || participant == "" {
			participant = t.code
		}
		segments = append(segments, TimedSpeakerSegment{
			SpeakerID:    participant,
			StartSeconds: t.start,
			EndSeconds:   t.end,
		})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].StartSeconds < segments[j].StartSeconds })

	return ReferenceAnnotation{
		RecordingID: recordingID,
		SpeakerMap:  speakerMap,
		Turns:       segments,
	}, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
