package actions

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/pipeline"
	"github.com/lakepipe/lakepipe/watermark"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		err := fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
		return nil, err
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseBatchList struct {
	Status    WebServerResponse `json:"status"`
	BatchList []BatchListItem   `json:"batches"`
}

type BatchListItem struct {
	BatchId          string          `json:"batchId"`
	BatchDescription string          `json:"batchDescription"`
	BatchStatus      pipeline.Status `json:"batchStatus"`
}

type ResponseBatchStats struct {
	Status       WebServerResponse `json:"status"`
	Message      string            `json:"message"`
	StatsSummary interface{}       `json:"batchStats"`
}

type ResponseBatchStatus struct {
	Status      WebServerResponse    `json:"status"`
	Message     string               `json:"message"`
	BatchStatus pipeline.BatchStatus `json:"batchStatus"`
}

type ResponseBatchStop struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	BatchId string            `json:"batchId"`
}

type ResponseBatchLaunch struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	BatchId string            `json:"batchId"`
}

type ResponseWatermarkList struct {
	Status     WebServerResponse `json:"status"`
	Message    string            `json:"message"`
	Watermarks []WatermarkItem   `json:"watermarks"`
}

type WatermarkItem struct {
	SourceSystem string `json:"sourceSystem"`
	Entity       string `json:"entity"`
	Position     string `json:"position"`
	UpdatedAt    string `json:"updatedAt"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chanStop <- "stop"
		log.Info("Stop signal sent")
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerBatchLaunch(log logger.Logger, allBatchInfo *pipeline.SafeMapBatchInfo, c ConnectionLoader, statsDumpFrequencySeconds int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		// Ingest the spec from the request body JSON.
		b, _ := ioutil.ReadAll(r.Body)
		// Unmarshal the supplied JSON.
		spec := IngestSpec{}
		err := json.Unmarshal(b, &spec)
		if err != nil {
			logAndRespond(log, err, w,
				ResponseBatchLaunch{Status: Error, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
			return
		}
		// Wire the runtime from the connections named in the spec.
		rt, cleanup, err := buildRuntime(log, c, &spec)
		if err != nil {
			logAndRespond(log, err, w,
				ResponseBatchLaunch{Status: Error, Message: fmt.Sprintf("error building the ingest runtime: %v", err)})
			return
		}
		// Launch.
		guid, err := pipeline.LaunchIngestDefinition(log, allBatchInfo, &spec.Ingest, rt, false, statsDumpFrequencySeconds)
		if err != nil {
			cleanup()
			logAndRespond(log, err, w,
				ResponseBatchLaunch{Status: Error, Message: fmt.Sprintf("invalid JSON ingest spec supplied: %v", err)})
			return
		}
		// Close the runtime's connections once the batch is done.
		go cleanupWhenBatchIsFinished(allBatchInfo, guid, cleanup)
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseBatchLaunch{Status: Okay, Message: "ingest batch launched", BatchId: guid})
		return
	}
}

// cleanupWhenBatchIsFinished polls the batch status and runs the cleanup func after the
// batch has reached a terminal state.
func cleanupWhenBatchIsFinished(allBatchInfo *pipeline.SafeMapBatchInfo, guid string, cleanup func()) {
	for {
		<-time.After(time.Second)
		bi, ok := allBatchInfo.Load(guid)
		if !ok || bi.Status.BatchIsFinished() { // if the batch has gone or finished...
			cleanup()
			return
		}
	}
}

func GetHandlerBatchStop(log logger.Logger, allBatchInfo *pipeline.SafeMapBatchInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id := vars["batchId"]
		// Get info for the given batchId.
		bi, ok := allBatchInfo.Load(id)
		if ok { // if the batch exists...
			w.WriteHeader(http.StatusOK)
			if bi.Status.BatchIsFinished() { // if the batch has already finished...
				log.Info("HTTP request to stop batch ", id, " has already finished.")
				respond(log, w, ResponseBatchStop{Status: Error, Message: "batch already ended", BatchId: id})
			} else { // else the batch is still running...
				// Stop the batch with a nil error.
				log.Info("Stopping batch ", id)
				bi.ChanStop <- nil
				respond(log, w, ResponseBatchStop{Status: Okay, Message: "shutting down", BatchId: id})
			}
		} else { // else the batch doesn't exist...
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request to stop batch ", id, " that doesn't exist.")
			respond(log, w, ResponseBatchStop{Status: Error, Message: "batch does not exist", BatchId: id})
		}
	}
}

func GetHandlerBatchList(log logger.Logger, allBatchInfo *pipeline.SafeMapBatchInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get a list of all batch IDs.
		batches := make([]BatchListItem, 0, len(allBatchInfo.Internal))
		allBatchInfo.Lock()
		for batchId, v := range allBatchInfo.Internal { // for each registered batch key...
			batches = append(batches, BatchListItem{
				BatchId:          batchId,
				BatchDescription: v.Ingest.Description,
				BatchStatus:      v.Status.Status,
			})
		}
		allBatchInfo.Unlock()
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseBatchList{Status: Okay, BatchList: batches})
	}
}

func GetHandlerBatchStats(log logger.Logger, allBatchInfo *pipeline.SafeMapBatchInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id := vars["batchId"]
		// Get stats for the given batchId.
		bi, ok := allBatchInfo.Load(id)
		if ok { // if the batch exists...
			w.WriteHeader(http.StatusOK)
			respond(log, w, ResponseBatchStats{Status: Okay, Message: "", StatsSummary: bi.Stats.GetStats()})
		} else { // else the batch doesn't exist...
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request to fetch stats for batch ", id, " that doesn't exist.")
			respond(log, w, ResponseBatchStats{Status: Error, Message: fmt.Sprintf("batch %v does not exist", id)})
		}
	}
}

func GetHandlerBatchStatus(log logger.Logger, allBatchInfo *pipeline.SafeMapBatchInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id := vars["batchId"]
		// Get status for the given batchId.
		bi, ok := allBatchInfo.Load(id)
		if ok { // if the batch exists...
			w.WriteHeader(http.StatusOK)
			respond(log, w, ResponseBatchStatus{Status: Okay, Message: "", BatchStatus: bi.Status})
		} else { // else the batch doesn't exist...
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request status of batch ", id, " that doesn't exist.")
			respond(log, w, ResponseBatchStatus{Status: Error, Message: fmt.Sprintf("batch %v does not exist", id)})
		}
	}
}

// GetHandlerWatermarkList reads the saved watermarks from the connection named in the
// query parameter ?connection=<name>[.<schema>.<table>].
func GetHandlerWatermarkList(log logger.Logger, c ConnectionLoader) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		target := ConnectionObject{ConnectionObject: r.URL.Query().Get("connection")}
		if target.ConnectionObject == "" { // if no connection was supplied...
			w.WriteHeader(http.StatusBadRequest)
			respond(log, w, ResponseWatermarkList{Status: Error, Message: "missing query parameter 'connection'"})
			return
		}
		db, err := openConnection(log, c, target.GetConnectionName())
		if err != nil {
			log.Error(err)
			w.WriteHeader(http.StatusBadRequest)
			respond(log, w, ResponseWatermarkList{Status: Error, Message: err.Error()})
			return
		}
		defer db.Close()
		records, err := watermark.NewSqlStore(log, db, target.GetObject()).List()
		if err != nil {
			log.Error(err)
			w.WriteHeader(http.StatusBadRequest)
			respond(log, w, ResponseWatermarkList{Status: Error, Message: err.Error()})
			return
		}
		items := make([]WatermarkItem, 0, len(records))
		for _, rec := range records { // for each saved watermark...
			items = append(items, WatermarkItem{
				SourceSystem: rec.SourceSystem,
				Entity:       rec.Entity,
				Position:     rec.Position.String(),
				UpdatedAt:    rec.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseWatermarkList{Status: Okay, Watermarks: items})
	}
}

// logAndRespond will log the error, write a http.StatusBadRequest and r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, r ResponseBatchLaunch) {
	log.Error(err)
	w.WriteHeader(http.StatusBadRequest)
	respond(log, w, r)
}

// respond will marshal i to a string and write it to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Panic(err)
	}
	_, err = fmt.Fprint(w, string(j))
	if err != nil {
		log.Panic(err)
	}
}
